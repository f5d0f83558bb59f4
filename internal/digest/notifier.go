package digest

import (
	"context"
	"log/slog"

	"bookherald/internal/catalog"
)

// LogNotifier writes each delivered record to the logger instead of an
// external destination. It backs dry runs and local development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier builds a notifier that logs deliveries.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

var _ Notifier = (*LogNotifier)(nil)

// Deliver logs the batch contents and always succeeds.
func (n *LogNotifier) Deliver(_ context.Context, channel string, books []*catalog.Book) error {
	for _, book := range books {
		n.logger.Info("delivering",
			slog.String("channel", channel),
			slog.String("isbn13", book.ISBN13),
			slog.String("title", book.Title))
	}
	return nil
}
