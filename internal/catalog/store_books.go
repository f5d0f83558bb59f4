package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookherald/internal/isbn"
)

// UpsertBook inserts a new catalog record or merges fields into an existing
// one. The title is always taken from the input; optional fields only
// overwrite when the new value is non-empty, so a sparser later result never
// erases data. first_seen_at is fixed at insert time and last_seen_at is
// refreshed on every call.
func (s *Store) UpsertBook(ctx context.Context, input BookInput) (UpsertAction, error) {
	// The primary key must already be the canonical 13-digit form; a
	// legacy or formatted identifier would dedupe against nothing.
	normalized, ok := isbn.Normalize(input.ISBN13)
	if !ok || normalized != input.ISBN13 {
		return "", fmt.Errorf("upsert book: %q is not a canonical isbn13", input.ISBN13)
	}
	if input.Title == "" {
		return "", fmt.Errorf("upsert book %s: empty title", input.ISBN13)
	}

	authorsJSON, err := marshalStrings(input.Authors)
	if err != nil {
		return "", fmt.Errorf("marshal authors: %w", err)
	}
	linksJSON, err := marshalLinks(input.Links)
	if err != nil {
		return "", fmt.Errorf("marshal links: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	source := input.Source
	if source == "" {
		source = "google_books"
	}

	var exists int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM books WHERE isbn13 = ?", input.ISBN13)
	if err := row.Scan(&exists); err != nil {
		return "", fmt.Errorf("check book %s: %w", input.ISBN13, err)
	}

	if exists == 0 {
		_, err := s.db.ExecContext(ctx, `
            INSERT INTO books (isbn13, title, authors_json, publisher, published_date,
                description, cover_url, links_json, source, first_seen_at, last_seen_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			input.ISBN13, input.Title, authorsJSON, nullableString(input.Publisher),
			nullableString(input.PublishedDate), nullableString(input.Description),
			nullableString(input.CoverURL), linksJSON, source, now, now)
		if err != nil {
			return "", fmt.Errorf("insert book %s: %w", input.ISBN13, err)
		}
		return ActionInserted, nil
	}

	_, err = s.db.ExecContext(ctx, `
        UPDATE books SET
            title = ?,
            authors_json = CASE WHEN ? IS NOT NULL THEN ? ELSE authors_json END,
            publisher = COALESCE(?, publisher),
            published_date = COALESCE(?, published_date),
            description = COALESCE(?, description),
            cover_url = COALESCE(?, cover_url),
            links_json = CASE WHEN ? IS NOT NULL THEN ? ELSE links_json END,
            source = ?,
            last_seen_at = ?
        WHERE isbn13 = ?`,
		input.Title, authorsJSON, authorsJSON,
		nullableString(input.Publisher), nullableString(input.PublishedDate),
		nullableString(input.Description), nullableString(input.CoverURL),
		linksJSON, linksJSON, source, now, input.ISBN13)
	if err != nil {
		return "", fmt.Errorf("update book %s: %w", input.ISBN13, err)
	}
	return ActionUpdated, nil
}

// GetBook loads a catalog record by ISBN-13, returning nil when absent.
func (s *Store) GetBook(ctx context.Context, isbn13 string) (*Book, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT isbn13, title, authors_json, publisher, published_date,
            description, cover_url, links_json, source,
            first_seen_at, last_seen_at, last_delivered_at
        FROM books WHERE isbn13 = ?`, isbn13)

	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", isbn13, err)
	}
	return book, nil
}

// CountBooks returns the total number of catalog records.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM books")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*Book, error) {
	var (
		book          Book
		authorsJSON   sql.NullString
		publisher     sql.NullString
		publishedDate sql.NullString
		description   sql.NullString
		coverURL      sql.NullString
		linksJSON     sql.NullString
		firstSeen     string
		lastSeen      string
		lastDelivered sql.NullString
	)
	err := row.Scan(&book.ISBN13, &book.Title, &authorsJSON, &publisher,
		&publishedDate, &description, &coverURL, &linksJSON, &book.Source,
		&firstSeen, &lastSeen, &lastDelivered)
	if err != nil {
		return nil, err
	}

	book.Publisher = publisher.String
	book.PublishedDate = publishedDate.String
	book.Description = description.String
	book.CoverURL = coverURL.String

	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &book.Authors); err != nil {
			return nil, fmt.Errorf("decode authors for %s: %w", book.ISBN13, err)
		}
	}
	if linksJSON.Valid && linksJSON.String != "" {
		if err := json.Unmarshal([]byte(linksJSON.String), &book.Links); err != nil {
			return nil, fmt.Errorf("decode links for %s: %w", book.ISBN13, err)
		}
	}

	if book.FirstSeenAt, err = parseTimeString(firstSeen); err != nil {
		return nil, fmt.Errorf("parse first_seen_at for %s: %w", book.ISBN13, err)
	}
	if book.LastSeenAt, err = parseTimeString(lastSeen); err != nil {
		return nil, fmt.Errorf("parse last_seen_at for %s: %w", book.ISBN13, err)
	}
	if lastDelivered.Valid {
		t, err := parseTimeString(lastDelivered.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_delivered_at for %s: %w", book.ISBN13, err)
		}
		book.LastDeliveredAt = &t
	}

	return &book, nil
}

func marshalStrings(values []string) (any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func marshalLinks(links []Link) (any, error) {
	if len(links) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
