package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Usage returns the recorded request count for a provider on a calendar day
// (formatted YYYY-MM-DD). A missing row counts as zero.
func (s *Store) Usage(ctx context.Context, date, provider string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		"SELECT count FROM api_usage WHERE date = ? AND provider = ?", date, provider)
	err := row.Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load usage %s/%s: %w", provider, date, err)
	}
	return count, nil
}

// IncrementUsage atomically bumps the daily counter for a provider and
// returns the new count.
func (s *Store) IncrementUsage(ctx context.Context, date, provider string) (int, error) {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO api_usage (date, provider, count) VALUES (?, ?, 1)
        ON CONFLICT (date, provider) DO UPDATE SET count = count + 1`,
		date, provider)
	if err != nil {
		return 0, fmt.Errorf("increment usage %s/%s: %w", provider, date, err)
	}
	return s.Usage(ctx, date, provider)
}

// JobState loads run bookkeeping for a channel, returning a zero-value state
// when the channel has never run.
func (s *Store) JobState(ctx context.Context, channel string) (JobState, error) {
	state := JobState{Channel: channel}
	row := s.db.QueryRowContext(ctx,
		"SELECT last_run_at, last_success_at FROM job_state WHERE channel = ?", channel)

	var lastRun, lastSuccess sql.NullString
	err := row.Scan(&lastRun, &lastSuccess)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return JobState{}, fmt.Errorf("load job state %s: %w", channel, err)
	}

	if lastRun.Valid {
		t, err := parseTimeString(lastRun.String)
		if err != nil {
			return JobState{}, fmt.Errorf("parse last_run_at: %w", err)
		}
		state.LastRunAt = &t
	}
	if lastSuccess.Valid {
		t, err := parseTimeString(lastSuccess.String)
		if err != nil {
			return JobState{}, fmt.Errorf("parse last_success_at: %w", err)
		}
		state.LastSuccessAt = &t
	}
	return state, nil
}

// MarkRun stamps last_run_at for a channel.
func (s *Store) MarkRun(ctx context.Context, channel, timestamp string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO job_state (channel, last_run_at) VALUES (?, ?)
        ON CONFLICT (channel) DO UPDATE SET last_run_at = excluded.last_run_at`,
		channel, timestamp)
	if err != nil {
		return fmt.Errorf("mark run %s: %w", channel, err)
	}
	return nil
}

// MarkSuccess stamps last_success_at for a channel.
func (s *Store) MarkSuccess(ctx context.Context, channel, timestamp string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO job_state (channel, last_success_at) VALUES (?, ?)
        ON CONFLICT (channel) DO UPDATE SET last_success_at = excluded.last_success_at`,
		channel, timestamp)
	if err != nil {
		return fmt.Errorf("mark success %s: %w", channel, err)
	}
	return nil
}
