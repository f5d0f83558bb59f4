package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bookherald/internal/catalog"
	"bookherald/internal/collector"
	"bookherald/internal/config"
)

func newCursorCommand(ctx *commandContext) *cobra.Command {
	cursorCmd := &cobra.Command{
		Use:   "cursor",
		Short: "Pagination cursor utilities",
	}

	cursorCmd.AddCommand(newCursorListCommand(ctx))
	cursorCmd.AddCommand(newCursorResetCommand(ctx))

	return cursorCmd
}

func newCursorListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved pagination cursors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				cursors, err := store.ListCursors(cmd.Context())
				if err != nil {
					return err
				}
				if len(cursors) == 0 {
					fmt.Fprintln(os.Stdout, "No cursors saved.")
					return nil
				}

				rows := make([][]string, 0, len(cursors))
				for _, cursor := range cursors {
					rows = append(rows, []string{
						cursor.Channel,
						collector.ShortHash(cursor.QuerySetHash),
						strconv.Itoa(cursor.StartIndex),
						yesNo(cursor.Exhausted),
						cursor.UpdatedAt.UTC().Format(time.RFC3339),
					})
				}
				fmt.Fprintln(os.Stdout, renderTable(
					[]string{"Channel", "Query Set", "Offset", "Exhausted", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newCursorResetCommand(ctx *commandContext) *cobra.Command {
	var channel string
	var all bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset pagination cursors so collection starts over",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel = strings.TrimSpace(channel)
			if channel == "" && !all {
				return fmt.Errorf("specify --channel or --all")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				removed, err := store.ResetCursors(cmd.Context(), channel)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Removed %d cursor(s).\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Only reset cursors for this channel")
	cmd.Flags().BoolVar(&all, "all", false, "Reset every cursor")
	return cmd
}
