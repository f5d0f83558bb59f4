package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"bookherald/internal/catalog"
	"bookherald/internal/config"
	"bookherald/internal/quota"
)

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show today's provider call budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				gate, err := quota.NewGate(store, cfg)
				if err != nil {
					return err
				}
				status, err := gate.Check(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintln(os.Stdout, renderTable(
					[]string{"Provider", "Date", "Used", "Limit", "Remaining"},
					[][]string{{
						gate.Provider(),
						status.Date,
						strconv.Itoa(status.Current),
						strconv.Itoa(status.Limit),
						strconv.Itoa(status.Remaining()),
					}},
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
