// Package quota gates outbound provider requests against a per-day budget.
package quota

import (
	"context"
	"fmt"
	"time"

	"bookherald/internal/config"
)

// UsageStore is the persistence the gate needs: a daily counter per
// provider. *catalog.Store satisfies it.
type UsageStore interface {
	Usage(ctx context.Context, date, provider string) (int, error)
	IncrementUsage(ctx context.Context, date, provider string) (int, error)
}

// Status is a point-in-time view of the daily budget.
type Status struct {
	Allowed bool
	Current int
	Limit   int
	Date    string
}

// Remaining reports how many requests the budget still allows today.
func (s Status) Remaining() int {
	if s.Current >= s.Limit {
		return 0
	}
	return s.Limit - s.Current
}

// Gate enforces a per-provider daily request limit. The calendar day rolls
// over in the configured timezone, not UTC.
type Gate struct {
	store    UsageStore
	provider string
	limit    int
	loc      *time.Location
	now      func() time.Time
}

// NewGate builds a gate from the quota section of the configuration.
func NewGate(store UsageStore, cfg *config.Config) (*Gate, error) {
	loc, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		return nil, fmt.Errorf("quota timezone %q: %w", cfg.Quota.Timezone, err)
	}
	if cfg.Quota.DailyLimit < 1 {
		return nil, fmt.Errorf("quota daily limit must be >= 1, got %d", cfg.Quota.DailyLimit)
	}
	return &Gate{
		store:    store,
		provider: cfg.Quota.Provider,
		limit:    cfg.Quota.DailyLimit,
		loc:      loc,
		now:      time.Now,
	}, nil
}

// Check reports whether another request fits in today's budget without
// consuming anything.
func (g *Gate) Check(ctx context.Context) (Status, error) {
	date := g.today()
	current, err := g.store.Usage(ctx, date, g.provider)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Allowed: current < g.limit,
		Current: current,
		Limit:   g.limit,
		Date:    date,
	}, nil
}

// Consume re-validates the budget and then records one request. The
// re-check means a Check/Consume pair straddling a day rollover or a
// concurrent writer still cannot push the counter past the limit.
func (g *Gate) Consume(ctx context.Context) (Status, error) {
	status, err := g.Check(ctx)
	if err != nil {
		return Status{}, err
	}
	if !status.Allowed {
		return status, nil
	}
	current, err := g.store.IncrementUsage(ctx, status.Date, g.provider)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Allowed: true,
		Current: current,
		Limit:   g.limit,
		Date:    status.Date,
	}, nil
}

// Provider returns the provider name the gate accounts against.
func (g *Gate) Provider() string {
	return g.provider
}

func (g *Gate) today() string {
	return g.now().In(g.loc).Format("2006-01-02")
}
