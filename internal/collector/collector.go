// Package collector drives quota-aware, resumable paging of the catalog
// search provider and folds the results into the catalog store.
package collector

import (
	"context"
	"log/slog"

	"bookherald/internal/catalog"
	"bookherald/internal/googlebooks"
	"bookherald/internal/quota"
)

// StopReason explains why a collection run stopped paging.
type StopReason string

const (
	StopQuota     StopReason = "quota"
	StopMaxPerRun StopReason = "max_per_run"
	StopExhausted StopReason = "exhausted"
	StopError     StopReason = "error"
)

// Request describes one collection run for a channel.
type Request struct {
	Channel   string
	Queries   []string
	MaxPerRun int
	Options   googlebooks.SearchOptions
}

// Result summarizes what a collection run did.
type Result struct {
	Channel      string
	QuerySetHash string
	StopReason   StopReason
	Pages        int
	Fetched      int
	Inserted     int
	Updated      int
	Skipped      int
	StartOffset  int
	EndOffset    int
	Exhausted    bool
}

// QuotaGate is the daily budget surface the collector needs. *quota.Gate
// satisfies it.
type QuotaGate interface {
	Check(ctx context.Context) (quota.Status, error)
	Consume(ctx context.Context) (quota.Status, error)
}

// Collector pages the search provider, upserts each usable result, and
// persists its position after every successful page so a restart resumes
// where the last run stopped.
type Collector struct {
	store    *catalog.Store
	gate     QuotaGate
	searcher googlebooks.Searcher
	pageSize int
	logger   *slog.Logger
}

// New builds a collector. pageSize caps how many results one request asks
// for and is clamped to the provider maximum.
func New(store *catalog.Store, gate QuotaGate, searcher googlebooks.Searcher, pageSize int, logger *slog.Logger) *Collector {
	if pageSize < 1 || pageSize > googlebooks.MaxPageSize {
		pageSize = googlebooks.MaxPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		store:    store,
		gate:     gate,
		searcher: searcher,
		pageSize: pageSize,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// Collect runs the paging loop for one channel and query set. Paging stops
// when the daily quota is exhausted, the per-run cap is reached, the result
// window is exhausted, or the provider fails. A provider failure leaves the
// cursor exactly where the last successful page put it.
func (c *Collector) Collect(ctx context.Context, req Request) (Result, error) {
	if req.Channel == "" {
		return Result{}, Wrap(ErrValidation, "", "collect", "empty channel", nil)
	}
	combined := CombinedQuery(req.Queries)
	if combined == "" {
		return Result{}, Wrap(ErrValidation, req.Channel, "collect", "no queries", nil)
	}

	hash := QuerySetHash(req.Queries)
	result := Result{Channel: req.Channel, QuerySetHash: hash}
	log := c.logger.With(
		slog.String("channel", req.Channel),
		slog.String("query_set", ShortHash(hash)),
	)

	cursor, err := c.store.Cursor(ctx, req.Channel, hash)
	if err != nil {
		return Result{}, Wrap(ErrStorage, req.Channel, "load cursor", "", err)
	}

	offset := 0
	if cursor != nil {
		if cursor.Exhausted {
			// Exhaustion is sticky: no provider calls until the cursor
			// is explicitly reset.
			result.StopReason = StopExhausted
			result.StartOffset = cursor.StartIndex
			result.EndOffset = cursor.StartIndex
			result.Exhausted = true
			log.Info("cursor exhausted, skipping collection", slog.Int("offset", cursor.StartIndex))
			return result, nil
		}
		offset = cursor.StartIndex
	}
	result.StartOffset = offset
	result.EndOffset = offset

	for {
		if req.MaxPerRun > 0 && result.Fetched >= req.MaxPerRun {
			result.StopReason = StopMaxPerRun
			break
		}

		status, err := c.gate.Check(ctx)
		if err != nil {
			result.StopReason = StopError
			return result, Wrap(ErrStorage, req.Channel, "quota check", "", err)
		}
		if !status.Allowed {
			result.StopReason = StopQuota
			log.Info("daily quota exhausted",
				slog.Int("used", status.Current),
				slog.Int("limit", status.Limit))
			break
		}

		pageSize := c.pageSize
		if req.MaxPerRun > 0 {
			if remaining := req.MaxPerRun - result.Fetched; remaining < pageSize {
				pageSize = remaining
			}
		}

		page, err := c.searcher.SearchVolumes(ctx, combined, offset, pageSize, req.Options)
		if err != nil {
			// The cursor keeps its last successful position.
			result.StopReason = StopError
			return result, Wrap(ErrUpstream, req.Channel, "search volumes", "", err)
		}

		consumed, err := c.gate.Consume(ctx)
		if err != nil {
			result.StopReason = StopError
			return result, Wrap(ErrStorage, req.Channel, "quota consume", "", err)
		}
		result.Pages++

		returned := len(page.Items)
		for _, volume := range page.Items {
			input, ok := volume.ToBookInput()
			if !ok {
				result.Skipped++
				continue
			}
			action, err := c.store.UpsertBook(ctx, input)
			if err != nil {
				result.StopReason = StopError
				return result, Wrap(ErrStorage, req.Channel, "upsert book", input.ISBN13, err)
			}
			switch action {
			case catalog.ActionInserted:
				result.Inserted++
			case catalog.ActionUpdated:
				result.Updated++
			}
		}
		result.Fetched += returned

		exhausted := returned == 0 || offset+returned >= page.TotalItems
		offset += returned
		result.EndOffset = offset
		result.Exhausted = exhausted

		if err := c.store.SaveCursor(ctx, catalog.Cursor{
			Channel:      req.Channel,
			QuerySetHash: hash,
			StartIndex:   offset,
			Exhausted:    exhausted,
		}); err != nil {
			result.StopReason = StopError
			return result, Wrap(ErrStorage, req.Channel, "save cursor", "", err)
		}

		log.Info("page fetched",
			slog.Int("offset", offset),
			slog.Int("returned", returned),
			slog.Int("total_items", page.TotalItems),
			slog.Bool("exhausted", exhausted))

		if exhausted {
			result.StopReason = StopExhausted
			break
		}

		// A consume denied after the request means the budget vanished
		// between Check and Consume (day rollover or a second writer).
		// The page is already processed and the cursor saved; just do
		// not start another one.
		if !consumed.Allowed {
			result.StopReason = StopQuota
			log.Info("daily quota exhausted",
				slog.Int("used", consumed.Current),
				slog.Int("limit", consumed.Limit))
			break
		}
	}

	log.Info("collection finished",
		slog.String("stop_reason", string(result.StopReason)),
		slog.Int("pages", result.Pages),
		slog.Int("fetched", result.Fetched),
		slog.Int("inserted", result.Inserted),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped))
	return result, nil
}
