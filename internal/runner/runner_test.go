package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bookherald/internal/catalog"
	"bookherald/internal/collector"
	"bookherald/internal/digest"
	"bookherald/internal/googlebooks"
	"bookherald/internal/jobs"
	"bookherald/internal/quota"
	"bookherald/internal/testsupport"
)

type scriptedSearcher struct {
	totalItems int
	failQuery  string
	calls      int
}

func (s *scriptedSearcher) SearchVolumes(_ context.Context, query string, startIndex, maxResults int, _ googlebooks.SearchOptions) (*googlebooks.SearchResponse, error) {
	s.calls++
	if s.failQuery != "" && query == s.failQuery {
		return nil, errors.New("provider down")
	}
	resp := &googlebooks.SearchResponse{TotalItems: s.totalItems}
	for i := startIndex; i < s.totalItems && len(resp.Items) < maxResults; i++ {
		resp.Items = append(resp.Items, googlebooks.Volume{
			VolumeInfo: googlebooks.VolumeInfo{
				Title: fmt.Sprintf("Book %d", i),
				IndustryIdentifiers: []googlebooks.IndustryIdentifier{
					{Type: "ISBN_13", Identifier: fmt.Sprintf("978%010d", i)},
				},
			},
		})
	}
	return resp, nil
}

func mustParse(t *testing.T, doc string) *jobs.File {
	t.Helper()
	file, err := jobs.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("jobs.Parse: %v", err)
	}
	return file
}

func newTestRunner(t *testing.T, searcher googlebooks.Searcher) (*Runner, *digestProbe) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := quota.NewGate(store, cfg)
	if err != nil {
		t.Fatalf("quota.NewGate: %v", err)
	}
	probe := &digestProbe{}
	c := collector.New(store, gate, searcher, cfg.GoogleBooks.PageSize, nil)
	d := digest.NewService(store, probe, nil)
	return New(cfg, store, c, d, nil), probe
}

type digestProbe struct {
	batches int
	items   int
}

func (p *digestProbe) Deliver(_ context.Context, _ string, books []*catalog.Book) error {
	p.batches++
	p.items += len(books)
	return nil
}

func TestRunCollectsAndDelivers(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 5}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
defaults:
  interval: 24h
  mail_limit: 10
jobs:
  - name: go-books
    queries: [golang]
`)

	report, err := r.Run(context.Background(), file, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(report.Channels) != 1 || !report.Channels[0].Ran {
		t.Fatalf("job did not run: %+v", report.Channels)
	}
	if report.Channels[0].Collection.Inserted != 5 {
		t.Fatalf("collection wrong: %+v", report.Channels[0].Collection)
	}
	if !report.Delivered || report.Delivery.NewlyMarked != 5 {
		t.Fatalf("delivery wrong: %+v", report.Delivery)
	}
	if report.Failed() {
		t.Fatal("clean run reported failure")
	}
}

func TestRunSkipsJobNotDue(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 2}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
jobs:
  - name: go-books
    interval: 24h
    queries: [golang]
`)
	ctx := context.Background()

	if _, err := r.Run(ctx, file, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	calls := searcher.calls

	report, err := r.Run(ctx, file, Options{})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Channels[0].Ran || report.Channels[0].SkipReason == "" {
		t.Fatalf("job should not be due: %+v", report.Channels[0])
	}
	if searcher.calls != calls {
		t.Fatal("skipped job still hit the provider")
	}

	// Force overrides the interval (the first run exhausted the cursor, so
	// the forced run stops without new provider calls but still executes).
	report, err = r.Run(ctx, file, Options{Force: true})
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if !report.Channels[0].Ran {
		t.Fatalf("forced job did not run: %+v", report.Channels[0])
	}
}

func TestRunBecomesDueAfterInterval(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 2}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
jobs:
  - name: go-books
    interval: 24h
    queries: [golang]
`)
	ctx := context.Background()

	if _, err := r.Run(ctx, file, Options{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	r.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	report, err := r.Run(ctx, file, Options{})
	if err != nil {
		t.Fatalf("later Run: %v", err)
	}
	if !report.Channels[0].Ran {
		t.Fatalf("job should be due again: %+v", report.Channels[0])
	}
}

func TestRunIsolatesJobFailures(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 3, failQuery: "rustlang"}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
jobs:
  - name: rust-books
    queries: [rustlang]
  - name: go-books
    queries: [golang]
`)

	report, err := r.Run(context.Background(), file, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Channels[0].Err == nil {
		t.Fatal("failing job did not report its error")
	}
	if !report.Channels[1].Ran {
		t.Fatalf("healthy job blocked by failing one: %+v", report.Channels[1])
	}
	if !report.Failed() {
		t.Fatal("run with a failed job should report failure")
	}
}

func TestRunSkipsDisabledJobs(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 3}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
jobs:
  - name: paused
    enabled: false
    queries: [golang]
`)

	report, err := r.Run(context.Background(), file, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Channels[0].Ran || report.Channels[0].SkipReason != "disabled" {
		t.Fatalf("disabled job handled wrong: %+v", report.Channels[0])
	}
	if searcher.calls != 0 {
		t.Fatal("disabled job hit the provider")
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	searcher := &scriptedSearcher{totalItems: 3}
	r, _ := newTestRunner(t, searcher)
	file := mustParse(t, `
jobs:
  - name: go-books
    queries: [golang]
`)

	report, err := r.Run(context.Background(), file, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatal("dry run hit the provider")
	}
	if report.Delivered {
		t.Fatal("dry run delivered")
	}
	if report.Channels[0].SkipReason != "dry run" {
		t.Fatalf("unexpected channel report: %+v", report.Channels[0])
	}
}
