package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lieuxdexception/site/internal/maintenance"
	"github.com/lieuxdexception/site/internal/runs"
	"github.com/spf13/cobra"
)

func newSeedCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import venues, pages and timeline events from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			doc, err := maintenance.ParseSeed(fh)
			if err != nil {
				return err
			}

			s := &maintenance.Seeder{Venues: c.deps.Venues, Content: c.deps.Content, By: "sitectl"}
			var rep maintenance.SeedReport
			err = c.track(ctx, "seed", os.Args[1:], func() (int, int, error) {
				var err error
				rep, err = s.Apply(ctx, doc)
				failed := 0
				if err != nil {
					failed = 1
				}
				return rep.Total(), failed, err
			})
			if err != nil {
				return err
			}
			c.report(cmd, rep, fmt.Sprintf("venues created=%d updated=%d, pages=%d, timeline created=%d updated=%d",
				rep.VenuesCreated, rep.VenuesUpdated, rep.Pages, rep.TimelineCreated, rep.TimelineUpdated))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")
	return cmd
}

func newRunsCmd(c *cli) *cobra.Command {
	var (
		script string
		limit  int64
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent maintenance runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.deps.Runs.Recent(cmd.Context(), script, limit)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				c.report(cmd, list, "")
				return nil
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSCRIPT\tSTATUS\tPROCESSED\tFAILED\tSTARTED\tARGS")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n", r.RunID, r.Script, r.Status,
					r.Processed, r.Failed, r.StartedAt.Local().Format(time.DateTime), strings.Join(r.Args, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&script, "script", "", "only runs of this command")
	cmd.Flags().Int64Var(&limit, "limit", 20, "number of runs")
	return cmd
}

var _ runRecorder = (*runs.Store)(nil)
