package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/archgraph/internal/datasets"
)

func newRunsCmd(global *globalOptions) *cobra.Command {
	var (
		dataset string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded builds and compare the last two successful ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, global)
			if err != nil {
				return err
			}
			defer a.Close()

			// the ledger keys runs by dataset name, so accept a namespace too
			if m, lerr := datasets.Load(dataset); dataset != "" && lerr == nil {
				dataset = m.Name
			}
			runs, err := a.ListRuns(ctx, dataset, limit)
			if err != nil {
				return withCode(exitBuild, err)
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATASET\tBACKEND\tSTATUS\tPHASE\tNODES\tEDGES\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.Dataset, r.Backend, r.Status, r.FailedPhase, r.Nodes, r.Edges, r.StartedAt.Format(time.RFC3339))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if dataset == "" {
				return nil
			}

			cmp, err := a.CompareRuns(ctx, dataset)
			if err != nil {
				fmt.Fprintln(out, "comparison:", err)
				return nil
			}
			switch {
			case cmp.Previous == nil:
				fmt.Fprintln(out, "comparison: only one successful run")
			case cmp.Stable():
				fmt.Fprintf(out, "comparison: %s and %s produced identical counts\n", cmp.Previous.ID, cmp.Latest.ID)
			default:
				fmt.Fprintf(out, "comparison: %s -> %s differ\n", cmp.Previous.ID, cmp.Latest.ID)
				for _, d := range cmp.Diffs {
					fmt.Fprintf(out, "  %s: %d -> %d\n", d.Name, d.Previous, d.Latest)
				}
				return withCode(exitBuild, errors.New("rebuild is not idempotent"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset name (empty lists all)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}
