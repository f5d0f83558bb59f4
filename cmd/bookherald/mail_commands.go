package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bookherald/internal/catalog"
	"bookherald/internal/config"
)

func newMailCommand(ctx *commandContext) *cobra.Command {
	mailCmd := &cobra.Command{
		Use:   "mail",
		Short: "Delivery ledger utilities",
	}

	mailCmd.AddCommand(newMailStatsCommand(ctx))
	mailCmd.AddCommand(newMailResetCommand(ctx))

	return mailCmd
}

func newMailStatsCommand(ctx *commandContext) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show delivered vs undelivered counts for a channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				target := strings.TrimSpace(channel)
				if target == "" {
					target = cfg.Delivery.Channel
				}
				stats, err := store.Stats(cmd.Context(), target)
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, renderTable(
					[]string{"Channel", "Total", "Delivered", "Undelivered"},
					[][]string{{
						target,
						strconv.Itoa(stats.Total),
						strconv.Itoa(stats.Delivered),
						strconv.Itoa(stats.Undelivered),
					}},
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel to inspect (defaults to the configured delivery channel)")
	return cmd
}

func newMailResetCommand(ctx *commandContext) *cobra.Command {
	var channel string
	var since string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear ledger entries so records become deliverable again",
		Long: "Clear delivery ledger entries. Filters combine: --channel limits the reset\n" +
			"to one channel and --since to entries newer than N days. Audit history is\n" +
			"never removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceDays, err := parseSinceDays(since)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				removed, err := store.ResetDeliveries(cmd.Context(), catalog.ResetOptions{
					Channel:   strings.TrimSpace(channel),
					SinceDays: sinceDays,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "Cleared %d ledger entr%s.\n", removed, pluralY(removed))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Only reset entries for this channel")
	cmd.Flags().StringVar(&since, "since", "", "Only reset entries newer than this many days (e.g. 30 or 30d)")
	return cmd
}

func parseSinceDays(raw string) (int, error) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "d"))
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid --since value %q: expected a positive day count", raw)
	}
	return days, nil
}

func pluralY(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}
