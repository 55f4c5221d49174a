package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/archgraph/internal/app"
)

type seedOptions struct {
	app.SeedOptions
	json bool
}

func newSeedCmd(global *globalOptions) *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Initialize a scenario: build one dataset into the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.Dataset) == "" && strings.TrimSpace(opts.File) == "" {
				return withCode(exitUsage, errors.New("one of --dataset or --file is required"))
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, global)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Seed(ctx, opts.SeedOptions)
			if res != nil && res.Report != nil {
				out := cmd.OutOrStdout()
				if opts.json {
					_ = res.Report.WriteJSON(out)
				} else {
					_ = res.Report.Render(out)
				}
			}
			if err != nil {
				return withCode(exitBuild, errors.New(app.DescribeFailure(err)))
			}
			nodes, edges := res.Summary.Totals()
			fmt.Fprintf(os.Stderr, "seeded %s: %d nodes, %d relationships\n", res.Plan.Model.Name, nodes, edges)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Embedded dataset by name or namespace (heatpump|hp, solar|sol)")
	cmd.Flags().StringVar(&opts.File, "file", "", "Dataset YAML file; wins over --dataset")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Clear the graph and reinstall constraints first")
	cmd.Flags().BoolVar(&opts.Test, "test", false, "Run the statistics and validation report afterwards")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the report as JSON")
	return cmd
}
