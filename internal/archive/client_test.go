package archive_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"clearcart/internal/archive"
	"clearcart/internal/catalog"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := archive.New("", ""); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestCreateSubmitsSelections(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/archives" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"job-1"}`))
	}))
	t.Cleanup(server.Close)

	client, err := archive.New(server.URL, "token")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	jobID, err := client.Create(context.Background(), []catalog.RenditionSelection{
		{AssetID: "a", Renditions: []string{"hd", "proxy"}},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if jobID != "job-1" {
		t.Fatalf("expected job-1, got %q", jobID)
	}

	items, ok := captured["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one item, got %v", captured["items"])
	}
	item := items[0].(map[string]any)
	if item["assetId"] != "a" {
		t.Fatalf("expected assetId a, got %v", item)
	}
	renditions := item["includeRenditions"].([]any)
	if len(renditions) != 2 || renditions[0] != "hd" {
		t.Fatalf("expected renditions preserved, got %v", renditions)
	}
}

func TestCreateWithoutJobIDFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := archive.New(server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Create(context.Background(), []catalog.RenditionSelection{{AssetID: "a"}}); err == nil {
		t.Fatal("expected error when response carries no job id")
	}
}

func TestCreateEmptySelections(t *testing.T) {
	client, err := archive.New("https://archive.test", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Create(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty selections")
	}
}

func TestStatusParsesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/archives/job-1/status" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"operation": "archive",
			"status": "ok",
			"description": "",
			"data": {
				"id": "job-1",
				"format": "zip",
				"status": "COMPLETED",
				"files": ["https://cdn.test/a.zip", "https://cdn.test/b.zip"]
			}
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := archive.New(server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	job, err := client.Status(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if job.Status != archive.StatusCompleted || len(job.Files) != 2 {
		t.Fatalf("unexpected job: %#v", job)
	}
}

func TestStatusHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := archive.New(server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Status(context.Background(), "job-1"); err == nil {
		t.Fatal("expected error for non-200 status response")
	}
}

func TestParseJobStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want archive.JobStatus
	}{
		{"COMPLETED", archive.StatusCompleted},
		{"completed", archive.StatusCompleted},
		{"FAILED", archive.StatusFailed},
		{"PROCESSING", archive.StatusProcessing},
		{"queued", archive.StatusProcessing},
		{"", archive.StatusProcessing},
	}
	for _, tc := range cases {
		if got := archive.ParseJobStatus(tc.raw); got != tc.want {
			t.Fatalf("ParseJobStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
