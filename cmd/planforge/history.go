package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Strob0t/planforge/internal/adapter/postgres"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List stored runs, or show one stored report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDSN(c.cfg); err != nil {
				return err
			}
			if limit < 1 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			format, err := resolveFormat(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, c.cfg.Postgres)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()
			store := postgres.NewStore(pool)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rep, err := store.GetReport(ctx, args[0])
				if err != nil {
					return err
				}
				return renderReport(out, rep, format)
			}

			runs, err := store.ListReports(ctx, limit)
			if err != nil {
				return err
			}
			if format == formatJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tMODE\tSOLVERS\tOK\tFAILED")
			for _, r := range runs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%d\t%d\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Solvers, r.Succeeded, r.Failed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVarP(&output, "output", "o", formatAuto, "output format: auto, text or json")
	return cmd
}
