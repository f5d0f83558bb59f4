package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cursor loads the pagination position for a (channel, query set) pair,
// returning nil when no cursor has been saved yet.
func (s *Store) Cursor(ctx context.Context, channel, querySetHash string) (*Cursor, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT channel, query_set_hash, start_index, exhausted, updated_at
        FROM collection_cursors
        WHERE channel = ? AND query_set_hash = ?`, channel, querySetHash)

	var (
		cursor    Cursor
		exhausted int
		updatedAt string
	)
	err := row.Scan(&cursor.Channel, &cursor.QuerySetHash, &cursor.StartIndex, &exhausted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor %s/%s: %w", channel, querySetHash, err)
	}
	cursor.Exhausted = exhausted != 0
	if cursor.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse cursor updated_at: %w", err)
	}
	return &cursor, nil
}

// SaveCursor upserts the pagination position. The stored offset never moves
// backwards and the exhausted flag is sticky until an explicit reset, so a
// racing stale writer cannot rewind a live cursor.
func (s *Store) SaveCursor(ctx context.Context, cursor Cursor) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO collection_cursors (channel, query_set_hash, start_index, exhausted, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (channel, query_set_hash) DO UPDATE SET
            start_index = MAX(collection_cursors.start_index, excluded.start_index),
            exhausted = MAX(collection_cursors.exhausted, excluded.exhausted),
            updated_at = excluded.updated_at`,
		cursor.Channel, cursor.QuerySetHash, cursor.StartIndex,
		boolToInt(cursor.Exhausted), now)
	if err != nil {
		return fmt.Errorf("save cursor %s/%s: %w", cursor.Channel, cursor.QuerySetHash, err)
	}
	return nil
}

// ResetCursor deletes the cursor for one (channel, query set) pair. It
// reports whether a cursor existed.
func (s *Store) ResetCursor(ctx context.Context, channel, querySetHash string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM collection_cursors WHERE channel = ? AND query_set_hash = ?",
		channel, querySetHash)
	if err != nil {
		return false, fmt.Errorf("reset cursor %s/%s: %w", channel, querySetHash, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ResetCursors deletes every cursor for a channel, or every cursor in the
// store when channel is empty. It returns the number removed.
func (s *Store) ResetCursors(ctx context.Context, channel string) (int, error) {
	query := "DELETE FROM collection_cursors"
	var args []any
	if channel != "" {
		query += " WHERE channel = ?"
		args = append(args, channel)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset cursors: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ListCursors returns all saved cursors ordered by channel then hash.
func (s *Store) ListCursors(ctx context.Context) ([]Cursor, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT channel, query_set_hash, start_index, exhausted, updated_at
        FROM collection_cursors
        ORDER BY channel, query_set_hash`)
	if err != nil {
		return nil, fmt.Errorf("list cursors: %w", err)
	}
	defer rows.Close()

	var cursors []Cursor
	for rows.Next() {
		var (
			cursor    Cursor
			exhausted int
			updatedAt string
		)
		if err := rows.Scan(&cursor.Channel, &cursor.QuerySetHash, &cursor.StartIndex, &exhausted, &updatedAt); err != nil {
			return nil, err
		}
		cursor.Exhausted = exhausted != 0
		if cursor.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
			return nil, fmt.Errorf("parse cursor updated_at: %w", err)
		}
		cursors = append(cursors, cursor)
	}
	return cursors, rows.Err()
}
