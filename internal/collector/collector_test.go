package collector_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bookherald/internal/collector"
	"bookherald/internal/googlebooks"
	"bookherald/internal/quota"
	"bookherald/internal/testsupport"
)

// fakeSearcher serves a fixed result window of sequential volumes. failAt
// rejects the request whose startIndex equals that offset.
type fakeSearcher struct {
	totalItems int
	failAt     int
	calls      int
	noISBNAt   map[int]bool
}

func (f *fakeSearcher) SearchVolumes(_ context.Context, _ string, startIndex, maxResults int, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
	f.calls++
	if f.failAt > 0 && startIndex == f.failAt {
		return nil, errors.New("upstream unavailable")
	}

	resp := &googlebooks.SearchResponse{TotalItems: f.totalItems}
	for i := startIndex; i < f.totalItems && len(resp.Items) < maxResults; i++ {
		volume := googlebooks.Volume{
			ID: fmt.Sprintf("vol-%d", i),
			VolumeInfo: googlebooks.VolumeInfo{
				Title: fmt.Sprintf("Book %d", i),
			},
		}
		if !f.noISBNAt[i] {
			volume.VolumeInfo.IndustryIdentifiers = []googlebooks.IndustryIdentifier{
				{Type: "ISBN_13", Identifier: fmt.Sprintf("978%010d", i)},
			}
		}
		resp.Items = append(resp.Items, volume)
	}
	return resp, nil
}

func TestCollectPagesToExhaustion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	searcher := &fakeSearcher{totalItems: 25}
	c := collector.New(store, gate, searcher, 10, nil)
	ctx := context.Background()
	req := collector.Request{Channel: "combined", Queries: []string{"golang"}}

	result, err := c.Collect(ctx, req)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.StopReason != collector.StopExhausted {
		t.Fatalf("expected exhausted, got %s", result.StopReason)
	}
	if result.Pages != 3 || result.Fetched != 25 || result.EndOffset != 25 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Inserted != 25 {
		t.Fatalf("expected 25 inserted, got %d", result.Inserted)
	}

	cursor, err := store.Cursor(ctx, "combined", result.QuerySetHash)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if cursor == nil || cursor.StartIndex != 25 || !cursor.Exhausted {
		t.Fatalf("cursor not finalized: %#v", cursor)
	}

	// A later run against the exhausted cursor makes zero provider calls.
	searcher.calls = 0
	result, err = c.Collect(ctx, req)
	if err != nil {
		t.Fatalf("Collect after exhaustion: %v", err)
	}
	if result.StopReason != collector.StopExhausted || searcher.calls != 0 {
		t.Fatalf("exhausted cursor hit the provider: %+v calls=%d", result, searcher.calls)
	}
}

func TestCollectStopsAtQuota(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDailyLimit(2))
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	searcher := &fakeSearcher{totalItems: 100}
	c := collector.New(store, gate, searcher, 10, nil)
	ctx := context.Background()

	result, err := c.Collect(ctx, collector.Request{Channel: "combined", Queries: []string{"golang"}})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.StopReason != collector.StopQuota {
		t.Fatalf("expected quota stop, got %s", result.StopReason)
	}
	if result.Pages != 2 || result.EndOffset != 20 {
		t.Fatalf("unexpected result: %+v", result)
	}

	cursor, err := store.Cursor(ctx, "combined", result.QuerySetHash)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if cursor == nil || cursor.StartIndex != 20 || cursor.Exhausted {
		t.Fatalf("cursor wrong after quota stop: %#v", cursor)
	}
}

func TestCollectRespectsMaxPerRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	searcher := &fakeSearcher{totalItems: 100}
	c := collector.New(store, gate, searcher, 10, nil)

	result, err := c.Collect(context.Background(), collector.Request{
		Channel:   "combined",
		Queries:   []string{"golang"},
		MaxPerRun: 15,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.StopReason != collector.StopMaxPerRun {
		t.Fatalf("expected max_per_run stop, got %s", result.StopReason)
	}
	// Second page is trimmed to the remaining budget.
	if result.Fetched != 15 || result.EndOffset != 15 {
		t.Fatalf("per-run cap not honored: %+v", result)
	}
}

func TestCollectErrorPreservesCursor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	searcher := &fakeSearcher{totalItems: 100, failAt: 10}
	c := collector.New(store, gate, searcher, 10, nil)
	ctx := context.Background()
	req := collector.Request{Channel: "combined", Queries: []string{"golang"}}

	result, err := c.Collect(ctx, req)
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if !errors.Is(err, collector.ErrUpstream) {
		t.Fatalf("error not tagged upstream: %v", err)
	}
	if result.StopReason != collector.StopError {
		t.Fatalf("expected error stop, got %s", result.StopReason)
	}

	cursor, err := store.Cursor(ctx, "combined", collector.QuerySetHash(req.Queries))
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if cursor == nil || cursor.StartIndex != 10 {
		t.Fatalf("cursor should hold last successful offset: %#v", cursor)
	}

	// The retry resumes from page two.
	searcher.failAt = 0
	result, err = c.Collect(ctx, req)
	if err != nil {
		t.Fatalf("Collect retry: %v", err)
	}
	if result.StartOffset != 10 || result.StopReason != collector.StopExhausted {
		t.Fatalf("retry did not resume: %+v", result)
	}
}

func TestCollectSkipsVolumesWithoutISBN(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	searcher := &fakeSearcher{totalItems: 5, noISBNAt: map[int]bool{1: true, 3: true}}
	c := collector.New(store, gate, searcher, 10, nil)

	result, err := c.Collect(context.Background(), collector.Request{
		Channel: "combined",
		Queries: []string{"golang"},
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.Skipped != 2 || result.Inserted != 3 {
		t.Fatalf("skip accounting wrong: %+v", result)
	}
	// Skipped items still advance the offset.
	if result.EndOffset != 5 || !result.Exhausted {
		t.Fatalf("offset accounting wrong: %+v", result)
	}
}

// rolloverGate admits the pre-flight check but reports the budget gone at
// consume time, as when the accounting day flips between the two calls.
type rolloverGate struct {
	limit int
}

func (g *rolloverGate) Check(context.Context) (quota.Status, error) {
	return quota.Status{Allowed: true, Current: 0, Limit: g.limit, Date: "2026-08-29"}, nil
}

func (g *rolloverGate) Consume(context.Context) (quota.Status, error) {
	return quota.Status{Allowed: false, Current: g.limit, Limit: g.limit, Date: "2026-08-30"}, nil
}

func TestCollectStopsWhenConsumeIsDenied(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{totalItems: 100}
	c := collector.New(store, &rolloverGate{limit: 95}, searcher, 10, nil)
	ctx := context.Background()
	req := collector.Request{Channel: "combined", Queries: []string{"golang"}}

	result, err := c.Collect(ctx, req)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if result.StopReason != collector.StopQuota {
		t.Fatalf("expected quota stop, got %s", result.StopReason)
	}
	// The fetched page is still processed and the cursor still advances;
	// only the next page is withheld.
	if searcher.calls != 1 || result.Pages != 1 || result.Inserted != 10 {
		t.Fatalf("denied consume mishandled the open page: %+v calls=%d", result, searcher.calls)
	}
	cursor, err := store.Cursor(ctx, "combined", result.QuerySetHash)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if cursor == nil || cursor.StartIndex != 10 {
		t.Fatalf("cursor wrong after denied consume: %#v", cursor)
	}
}

func TestCollectTagsStoreFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	c := collector.New(store, gate, &fakeSearcher{totalItems: 5}, 10, nil)

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = c.Collect(context.Background(), collector.Request{
		Channel: "combined",
		Queries: []string{"golang"},
	})
	if !errors.Is(err, collector.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestCollectRejectsEmptyQuerySet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	c := collector.New(store, gate, &fakeSearcher{}, 10, nil)

	_, err = c.Collect(context.Background(), collector.Request{
		Channel: "combined",
		Queries: []string{"  ", ""},
	})
	if !errors.Is(err, collector.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
