// Package digest selects undelivered catalog records and hands them to a
// delivery channel, recording the handoff in the ledger afterwards.
package digest

import (
	"context"
	"fmt"
	"log/slog"

	"bookherald/internal/catalog"
)

// Notifier delivers a batch of records to a channel's destination. A nil
// error means every record in the batch was handed off.
type Notifier interface {
	Deliver(ctx context.Context, channel string, books []*catalog.Book) error
}

// Report summarizes one delivery attempt.
type Report struct {
	Channel     string
	Selected    int
	NewlyMarked int
	Skipped     bool
}

// Service wires selection, handoff, and ledger recording together.
type Service struct {
	store    *catalog.Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a delivery service.
func NewService(store *catalog.Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "digest")),
	}
}

// Deliver selects up to limit undelivered records for the channel, hands
// them to the notifier, and marks them delivered only after the handoff
// succeeds. An empty selection skips the handoff entirely so no empty
// digest ever goes out. A failed handoff leaves the ledger untouched and
// the same records eligible for the next attempt.
func (s *Service) Deliver(ctx context.Context, channel string, limit int) (Report, error) {
	report := Report{Channel: channel}
	if channel == "" {
		return report, fmt.Errorf("deliver: empty channel")
	}

	books, err := s.store.ListUndelivered(ctx, channel, limit)
	if err != nil {
		return report, fmt.Errorf("select undelivered: %w", err)
	}
	report.Selected = len(books)

	if len(books) == 0 {
		report.Skipped = true
		s.logger.Info("nothing to deliver", slog.String("channel", channel))
		return report, nil
	}

	if err := s.notifier.Deliver(ctx, channel, books); err != nil {
		return report, fmt.Errorf("deliver to %s: %w", channel, err)
	}

	isbns := make([]string, len(books))
	for i, book := range books {
		isbns[i] = book.ISBN13
	}
	marked, err := s.store.RecordDelivery(ctx, channel, isbns)
	if err != nil {
		return report, fmt.Errorf("record delivery: %w", err)
	}
	report.NewlyMarked = marked

	s.logger.Info("digest delivered",
		slog.String("channel", channel),
		slog.Int("selected", report.Selected),
		slog.Int("newly_marked", marked))
	return report, nil
}
