package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/archgraph/internal/app"
	"github.com/yungbote/archgraph/internal/build"
	"github.com/yungbote/archgraph/internal/catalog"
	"github.com/yungbote/archgraph/internal/datasets"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

func newPlanCmd() *cobra.Command {
	var opts app.SeedOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print and statically verify the phase plan of a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.Dataset) == "" && strings.TrimSpace(opts.File) == "" {
				return withCode(exitUsage, errors.New("one of --dataset or --file is required"))
			}
			// no store, no ledger: a bare app is enough to expand the plan
			a := &app.App{Log: logger.Nop()}
			p, err := a.LoadPlan(opts)
			if err != nil {
				return withCode(exitBuild, err)
			}
			cat := catalog.Default()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PHASE\tSTEP\tITEMS\t")
			for _, ph := range p.Phases {
				for _, s := range ph.Steps {
					fmt.Fprintf(tw, "%s\t%s\t%d\t\n", ph.Name, s.Name, len(s.Entities)+len(s.Links))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if err := build.VerifyPlan(p, cat); err != nil {
				return withCode(exitBuild, fmt.Errorf("plan does not verify: %w", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "plan: OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Embedded dataset by name or namespace")
	cmd.Flags().StringVar(&opts.File, "file", "", "Dataset YAML file")
	return cmd
}

func newDatasetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the embedded datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tNAMESPACE\tCOMPANY\tENTITIES")
			for _, name := range datasets.Names() {
				m, err := datasets.Load(name)
				if err != nil {
					return withCode(exitBuild, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.Name, m.Namespace, m.Company.Name, len(m.Entities)+1)
			}
			return tw.Flush()
		},
	}
}
