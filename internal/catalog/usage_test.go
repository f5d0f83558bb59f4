package catalog_test

import (
	"context"
	"testing"
	"time"

	"bookherald/internal/testsupport"
)

func TestUsageStartsAtZeroAndIncrements(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	count, err := store.Usage(ctx, "2026-08-29", "google_books")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if count != 0 {
		t.Fatalf("fresh day should be zero, got %d", count)
	}

	for want := 1; want <= 3; want++ {
		got, err := store.IncrementUsage(ctx, "2026-08-29", "google_books")
		if err != nil {
			t.Fatalf("IncrementUsage: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d after increment, got %d", want, got)
		}
	}

	// Other days and providers track independently.
	count, err = store.Usage(ctx, "2026-08-30", "google_books")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if count != 0 {
		t.Fatalf("next day leaked usage: %d", count)
	}
	count, err = store.Usage(ctx, "2026-08-29", "open_library")
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if count != 0 {
		t.Fatalf("other provider leaked usage: %d", count)
	}
}

func TestJobStateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	state, err := store.JobState(ctx, "combined")
	if err != nil {
		t.Fatalf("JobState: %v", err)
	}
	if state.LastRunAt != nil || state.LastSuccessAt != nil {
		t.Fatalf("fresh channel should have nil stamps: %+v", state)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := store.MarkRun(ctx, "combined", now); err != nil {
		t.Fatalf("MarkRun: %v", err)
	}
	if err := store.MarkSuccess(ctx, "combined", now); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}

	state, err = store.JobState(ctx, "combined")
	if err != nil {
		t.Fatalf("JobState: %v", err)
	}
	if state.LastRunAt == nil || state.LastSuccessAt == nil {
		t.Fatalf("stamps missing: %+v", state)
	}
}
