package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookherald/internal/catalog"
	"bookherald/internal/collector"
	"bookherald/internal/config"
	"bookherald/internal/digest"
	"bookherald/internal/googlebooks"
	"bookherald/internal/jobs"
	"bookherald/internal/quota"
	"bookherald/internal/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect due jobs and deliver the digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}

				file, err := jobs.Load(cfg.JobsPath())
				if err != nil {
					return err
				}

				client, err := googlebooks.New(cfg.GoogleBooks.APIKey, cfg.GoogleBooks.BaseURL)
				if err != nil {
					return fmt.Errorf("google books client: %w", err)
				}
				gate, err := quota.NewGate(store, cfg)
				if err != nil {
					return err
				}

				c := collector.New(store, gate, client, cfg.GoogleBooks.PageSize, logger)
				d := digest.NewService(store, digest.NewLogNotifier(logger), logger)
				r := runner.New(cfg, store, c, d, logger)

				report, err := r.Run(cmd.Context(), file, runner.Options{
					Force:  force,
					DryRun: dryRun,
				})
				if err != nil {
					return err
				}

				printRunReport(report)
				if report.Failed() {
					return fmt.Errorf("run %s finished with job failures", report.RunID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Run every enabled job regardless of interval")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report due jobs without collecting or delivering")

	return cmd
}

func printRunReport(report runner.RunReport) {
	rows := make([][]string, 0, len(report.Channels))
	for _, channel := range report.Channels {
		status := channel.SkipReason
		switch {
		case channel.Err != nil:
			status = "error: " + channel.Err.Error()
		case channel.Ran:
			status = string(channel.Collection.StopReason)
		}
		rows = append(rows, []string{
			channel.Job,
			yesNo(channel.Ran),
			status,
			fmt.Sprintf("%d", channel.Collection.Fetched),
			fmt.Sprintf("%d", channel.Collection.Inserted),
			fmt.Sprintf("%d", channel.Collection.Updated),
			fmt.Sprintf("%d", channel.Collection.Skipped),
		})
	}

	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"Job", "Ran", "Status", "Fetched", "Inserted", "Updated", "Skipped"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))

	if report.Delivered {
		fmt.Fprintf(os.Stdout, "Delivered %d record(s) on channel %q (%d newly marked).\n",
			report.Delivery.Selected, report.Delivery.Channel, report.Delivery.NewlyMarked)
	} else {
		fmt.Fprintln(os.Stdout, "No digest delivered.")
	}
}
