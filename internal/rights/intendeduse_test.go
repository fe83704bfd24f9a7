package rights_test

import (
	"testing"
	"time"

	"clearcart/internal/rights"
	"clearcart/internal/services"
)

func TestIntendedUseValidate(t *testing.T) {
	base := rights.IntendedUse{
		AirDate:       time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		PullDate:      time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		Markets:       []string{"m1"},
		MediaChannels: []string{"c1"},
	}

	cases := []struct {
		name   string
		mutate func(*rights.IntendedUse)
		valid  bool
	}{
		{"valid minimum gap", func(u *rights.IntendedUse) {}, true},
		{"wider gap", func(u *rights.IntendedUse) {
			u.PullDate = u.AirDate.AddDate(0, 1, 0)
		}, true},
		{"missing air date", func(u *rights.IntendedUse) { u.AirDate = time.Time{} }, false},
		{"missing pull date", func(u *rights.IntendedUse) { u.PullDate = time.Time{} }, false},
		{"same day", func(u *rights.IntendedUse) { u.PullDate = u.AirDate }, false},
		{"pull before air", func(u *rights.IntendedUse) {
			u.PullDate = u.AirDate.AddDate(0, 0, -3)
		}, false},
		{"gap under one day", func(u *rights.IntendedUse) {
			u.PullDate = u.AirDate.Add(12 * time.Hour)
		}, false},
		{"no markets", func(u *rights.IntendedUse) { u.Markets = nil }, false},
		{"no channels", func(u *rights.IntendedUse) { u.MediaChannels = nil }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			use := base.Clone()
			tc.mutate(&use)
			err := use.Validate()
			if tc.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.valid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !services.IsValidation(err) {
					t.Fatalf("expected validation-class error, got %v", err)
				}
			}
		})
	}
}

func TestCloneIsolatesSlices(t *testing.T) {
	use := rights.IntendedUse{
		Markets:       []string{"m1"},
		MediaChannels: []string{"c1"},
	}
	cp := use.Clone()
	cp.Markets[0] = "changed"
	if use.Markets[0] != "m1" {
		t.Fatal("expected clone to isolate markets slice")
	}
}
