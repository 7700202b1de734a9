package snapshot_test

import (
	"testing"
	"time"

	"spritec/snapshot"
)

func TestHistory(t *testing.T) {
	dir := t.TempDir()

	h, err := snapshot.OpenHistory(dir)
	if err != nil {
		t.Fatalf("unable to open history: %v", err)
	}

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []snapshot.Pull{
		{Version: "1", URL: "https://a.test/", PulledAt: start, Resources: 3},
		{Version: "2", URL: "https://a.test/", PulledAt: start.Add(time.Hour), Resources: 4},
		{Version: "1", URL: "https://b.test/", PulledAt: start.Add(2 * time.Hour), Resources: 5},
	} {
		if err := h.Record(p); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := h.Close(); err != nil {
		t.Fatalf("unable to close history: %v", err)
	}

	// reopening keeps records
	h, err = snapshot.OpenHistory(dir)
	if err != nil {
		t.Fatalf("unable to reopen history: %v", err)
	}
	defer h.Close()

	last, err := h.Last()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(last) != 2 {
		t.Fatalf("expected 2 versions, got %v", last)
	}
	if p := last["1"]; p.URL != "https://b.test/" || p.Resources != 5 || !p.PulledAt.Equal(start.Add(2*time.Hour)) {
		t.Errorf("unexpected last pull of version 1: %+v", p)
	}
	if p := last["2"]; p.Resources != 4 {
		t.Errorf("unexpected last pull of version 2: %+v", p)
	}

	// history database is not a version
	versions, err := snapshot.Versions(dir)
	if err != nil || len(versions) != 0 {
		t.Errorf("unexpected versions %v, %v", versions, err)
	}
}
