package catalog_test

import (
	"testing"

	"clearcart/internal/catalog"
)

func TestDeriveDisplayName(t *testing.T) {
	cases := []struct {
		id     string
		prefix string
		want   string
	}{
		{"urn:mediaasset:summer_campaign-2026", "urn:mediaasset:", "Summer Campaign 2026"},
		{"urn:mediaasset:clip.final.v2", "urn:mediaasset:", "Clip Final V2"},
		{"plain-id", "", "Plain Id"},
		{"", "urn:mediaasset:", "Unknown Asset"},
		{"urn:mediaasset:---", "urn:mediaasset:", "Unknown Asset"},
	}
	for _, tc := range cases {
		if got := catalog.DeriveDisplayName(tc.id, tc.prefix); got != tc.want {
			t.Errorf("DeriveDisplayName(%q, %q) = %q, want %q", tc.id, tc.prefix, got, tc.want)
		}
	}
}
