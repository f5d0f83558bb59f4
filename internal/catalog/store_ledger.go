package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ListUndelivered returns catalog records without a ledger entry for the
// channel, newest discoveries first. limit <= 0 means no cap.
func (s *Store) ListUndelivered(ctx context.Context, channel string, limit int) ([]*Book, error) {
	query := `
        SELECT b.isbn13, b.title, b.authors_json, b.publisher, b.published_date,
            b.description, b.cover_url, b.links_json, b.source,
            b.first_seen_at, b.last_seen_at, b.last_delivered_at
        FROM books b
        WHERE NOT EXISTS (
            SELECT 1 FROM delivery_items di
            WHERE di.channel = ? AND di.isbn13 = b.isbn13
        )
        ORDER BY b.first_seen_at DESC, b.isbn13`
	args := []any{channel}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list undelivered for %s: %w", channel, err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// RecordDelivery marks a batch of identifiers delivered on a channel. One
// append-only audit row captures the full batch, and each identifier gets a
// ledger row unless it already has one. The count of newly marked
// identifiers is returned, so re-recording an already delivered batch yields
// zero and writes nothing new to the ledger.
func (s *Store) RecordDelivery(ctx context.Context, channel string, isbns []string) (int, error) {
	if channel == "" {
		return 0, fmt.Errorf("record delivery: empty channel")
	}
	if len(isbns) == 0 {
		return 0, nil
	}

	listJSON, err := json.Marshal(isbns)
	if err != nil {
		return 0, fmt.Errorf("marshal isbn list: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delivery tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	audit, err := tx.ExecContext(ctx,
		"INSERT INTO deliveries (channel, delivered_at, isbn13_list_json) VALUES (?, ?, ?)",
		channel, now, string(listJSON))
	if err != nil {
		return 0, fmt.Errorf("insert delivery audit: %w", err)
	}
	deliveryID, err := audit.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("delivery audit id: %w", err)
	}

	newlyMarked := 0
	for _, isbn := range isbns {
		result, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO delivery_items (delivery_id, channel, isbn13, delivered_at) VALUES (?, ?, ?, ?)",
			deliveryID, channel, isbn, now)
		if err != nil {
			return 0, fmt.Errorf("insert ledger row %s: %w", isbn, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, err
		}
		newlyMarked += int(affected)
	}

	// Legacy column kept for older tooling; selection never reads it.
	placeholders := makePlaceholders(len(isbns))
	args := make([]any, 0, len(isbns)+1)
	args = append(args, now)
	for _, isbn := range isbns {
		args = append(args, isbn)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE books SET last_delivered_at = ? WHERE isbn13 IN ("+placeholders+")",
		args...); err != nil {
		return 0, fmt.Errorf("update last_delivered_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delivery: %w", err)
	}
	return newlyMarked, nil
}

// ResetDeliveries removes ledger rows so the matching records become
// eligible again. Filters combine with AND: an empty channel matches every
// channel, SinceDays <= 0 matches any age. Audit batches are never touched.
func (s *Store) ResetDeliveries(ctx context.Context, opts ResetOptions) (int, error) {
	var (
		conditions []string
		args       []any
	)
	if opts.Channel != "" {
		conditions = append(conditions, "channel = ?")
		args = append(args, opts.Channel)
	}
	if opts.SinceDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -opts.SinceDays).Format(time.RFC3339Nano)
		conditions = append(conditions, "delivered_at >= ?")
		args = append(args, cutoff)
	}

	query := "DELETE FROM delivery_items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset deliveries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Stats reports catalog coverage for one channel.
func (s *Store) Stats(ctx context.Context, channel string) (DeliveryStats, error) {
	var stats DeliveryStats
	row := s.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(1) FROM books),
            (SELECT COUNT(1) FROM books b WHERE EXISTS (
                SELECT 1 FROM delivery_items di
                WHERE di.channel = ? AND di.isbn13 = b.isbn13
            ))`, channel)
	if err := row.Scan(&stats.Total, &stats.Delivered); err != nil {
		return DeliveryStats{}, fmt.Errorf("delivery stats for %s: %w", channel, err)
	}
	stats.Undelivered = stats.Total - stats.Delivered
	return stats, nil
}

// DeliveriesByChannel returns the audit batches for a channel, oldest first.
func (s *Store) DeliveriesByChannel(ctx context.Context, channel string) ([]Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, channel, delivered_at, isbn13_list_json FROM deliveries WHERE channel = ? ORDER BY id",
		channel)
	if err != nil {
		return nil, fmt.Errorf("list deliveries for %s: %w", channel, err)
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var (
			delivery    Delivery
			deliveredAt string
			listJSON    string
		)
		if err := rows.Scan(&delivery.ID, &delivery.Channel, &deliveredAt, &listJSON); err != nil {
			return nil, err
		}
		if delivery.DeliveredAt, err = parseTimeString(deliveredAt); err != nil {
			return nil, fmt.Errorf("parse delivered_at: %w", err)
		}
		if err := json.Unmarshal([]byte(listJSON), &delivery.ISBNs); err != nil {
			return nil, fmt.Errorf("decode isbn list: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, rows.Err()
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
