package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookherald/internal/catalog"
	"bookherald/internal/config"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Catalog database utilities",
	}

	dbCmd.AddCommand(newDBHealthCommand(ctx))
	dbCmd.AddCommand(newDBBackupCommand(ctx))

	return dbCmd
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Inspect database schema and integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				health := store.CheckHealth(cmd.Context())
				colorize := shouldColorize(os.Stdout)

				fmt.Fprintln(os.Stdout, renderStatusLine("Database file", health.DatabaseExists, health.DBPath, colorize))
				fmt.Fprintln(os.Stdout, renderStatusLine("Readable", health.DatabaseReadable, "", colorize))
				fmt.Fprintln(os.Stdout, renderStatusLine("Schema complete", len(health.MissingTables) == 0,
					missingSummary(health.MissingTables), colorize))
				fmt.Fprintln(os.Stdout, renderStatusLine("Integrity check", health.IntegrityCheck, "", colorize))
				fmt.Fprintf(os.Stdout, "  %-20s %d\n", "Books:", health.TotalBooks)

				if health.Error != "" {
					return fmt.Errorf("database health: %s", health.Error)
				}
				if len(health.MissingTables) > 0 || !health.IntegrityCheck {
					return fmt.Errorf("database health check failed")
				}
				return nil
			})
		},
	}
}

func newDBBackupCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a consistent snapshot of the catalog database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				target := strings.TrimSpace(output)
				if target == "" {
					stamp := time.Now().UTC().Format("20060102T150405Z")
					target = store.Path() + ".backup-" + stamp
				} else {
					expanded, err := config.ExpandPath(target)
					if err != nil {
						return err
					}
					target = expanded
				}
				if err := store.Backup(cmd.Context(), target); err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Backup written to %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Backup destination (defaults next to the database)")
	return cmd
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func renderStatusLine(label string, ok bool, message string, colorize bool) string {
	status := "OK"
	if !ok {
		status = "ERROR"
	}
	if message != "" {
		status = fmt.Sprintf("[%s] %s", status, message)
	} else {
		status = fmt.Sprintf("[%s]", status)
	}
	base := fmt.Sprintf("  %-20s %s", label+":", status)
	if colorize {
		color := ansiGreen
		if !ok {
			color = ansiRed
		}
		return color + base + ansiReset
	}
	return base
}

func missingSummary(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	return "missing " + strings.Join(missing, ", ")
}
