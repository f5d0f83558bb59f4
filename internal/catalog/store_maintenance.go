package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var requiredTables = []string{
	"books",
	"deliveries",
	"delivery_items",
	"collection_cursors",
	"api_usage",
	"job_state",
}

// CheckHealth inspects the database file, schema, and integrity. It never
// returns an error; failures are reported inside the result so the caller
// can render a diagnosis even for a broken database.
func (s *Store) CheckHealth(ctx context.Context) DatabaseHealth {
	health := DatabaseHealth{DBPath: s.path}

	if _, err := os.Stat(s.path); err != nil {
		health.Error = fmt.Sprintf("database file: %v", err)
		return health
	}
	health.DatabaseExists = true

	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		health.Error = fmt.Sprintf("read schema: %v", err)
		return health
	}
	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			health.Error = fmt.Sprintf("scan schema: %v", err)
			return health
		}
		present[name] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		health.Error = fmt.Sprintf("read schema: %v", err)
		return health
	}
	health.DatabaseReadable = true

	for _, table := range requiredTables {
		if present[table] {
			health.TablesPresent = append(health.TablesPresent, table)
		} else {
			health.MissingTables = append(health.MissingTables, table)
		}
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = fmt.Sprintf("integrity check: %v", err)
		return health
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")

	if count, err := s.CountBooks(ctx); err == nil {
		health.TotalBooks = count
	}

	return health
}

// Backup writes a consistent snapshot of the database to destPath using
// VACUUM INTO. The destination must not already exist.
func (s *Store) Backup(ctx context.Context, destPath string) error {
	if destPath == "" {
		return fmt.Errorf("backup: empty destination")
	}
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup: destination %s already exists", destPath)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("backup: create destination dir: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backup to %s: %w", destPath, err)
	}
	return nil
}
