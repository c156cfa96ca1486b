// Command sitectl runs the operator maintenance jobs of the site: image
// variants, CRM lead sync, lead backups and content seeding.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lieuxdexception/site/internal/app"
	"github.com/lieuxdexception/site/internal/config"
	"github.com/lieuxdexception/site/internal/runs"
	"github.com/lieuxdexception/site/pkg/logger"
	"github.com/spf13/cobra"
)

// runRecorder persists maintenance runs; *runs.Store in production.
type runRecorder interface {
	Save(ctx context.Context, r *runs.Run) error
}

// cli carries what the subcommands share. build is swapped in tests.
type cli struct {
	jsonOutput bool
	build      func(ctx context.Context) (*app.Deps, error)
	deps       *app.Deps
	runs       runRecorder
}

func defaultBuild(ctx context.Context) (*app.Deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(ctx, cfg, app.Options{MongoAttempts: 1})
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Maintenance jobs for the Lieux d'Exception site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.deps == nil {
				d, err := c.build(cmd.Context())
				if err != nil {
					return err
				}
				c.deps = d
			}
			if c.runs == nil {
				c.runs = c.deps.Runs
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print reports as JSON")

	root.AddCommand(newOptimizeCmd(c))
	root.AddCommand(newSyncLeadsCmd(c))
	root.AddCommand(newExportLeadsCmd(c))
	root.AddCommand(newSeedCmd(c))
	root.AddCommand(newRunsCmd(c))
	return root
}

// track records a maintenance run around fn. Recording failures are logged
// and never fail the job itself.
func (c *cli) track(ctx context.Context, script string, args []string, fn func() (processed, failed int, err error)) error {
	run := runs.New(script, args)
	if err := c.runs.Save(ctx, run); err != nil {
		logger.Warnf("record run %s: %v", run.RunID, err)
	}
	processed, failed, err := fn()
	run.Finish(processed, failed, err)
	if serr := c.runs.Save(context.WithoutCancel(ctx), run); serr != nil {
		logger.Warnf("record run %s: %v", run.RunID, serr)
	}
	logger.Infof("%s %s: status=%s processed=%d failed=%d", script, run.RunID, run.Status, processed, failed)
	return err
}

// report prints v as indented JSON with --json, otherwise as text.
func (c *cli) report(cmd *cobra.Command, v any, text string) {
	if c.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{build: defaultBuild}
	err := newRootCmd(c).ExecuteContext(ctx)
	if c.deps != nil {
		c.deps.Close(context.Background())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
