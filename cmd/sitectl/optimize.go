package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/maintenance"
	"github.com/spf13/cobra"
)

var errMissingVariants = errors.New("some originals are missing optimized variants")

func newOptimizeCmd(c *cli) *cobra.Command {
	var (
		opts        maintenance.OptimizeOptions
		presetsFile string
	)
	cmd := &cobra.Command{
		Use:   "optimize-images",
		Short: "Generate missing JPEG variants for stored originals",
		Long: `Walks the originals under --prefix (skipping optimized/ and uploaded media)
and writes one JPEG per preset under optimized/. With --verify nothing is
written and the command exits 1 when a variant is missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			presets, err := c.deps.Presets()
			if presetsFile != "" {
				presets, err = images.LoadPresets(presetsFile)
			}
			if err != nil {
				return err
			}
			o := &maintenance.Optimizer{
				Store:   c.deps.Store,
				Presets: presets,
				Venues:  c.deps.Venues,
				Out:     cmd.OutOrStdout(),
			}
			if c.jsonOutput {
				o.Out = cmd.ErrOrStderr()
			}

			var rep maintenance.OptimizeReport
			err = c.track(ctx, "optimize-images", os.Args[1:], func() (int, int, error) {
				var err error
				rep, err = o.Run(ctx, opts)
				failed := rep.Failed
				if opts.Verify {
					failed += len(rep.Missing)
				}
				return rep.Originals, failed, err
			})
			if err != nil {
				return err
			}
			c.report(cmd, rep, fmt.Sprintf("originals=%d generated=%d missing=%d failed=%d venues_updated=%d",
				rep.Originals, rep.Generated, len(rep.Missing), rep.Failed, rep.Updated))
			if opts.Verify && len(rep.Missing) > 0 {
				return errMissingVariants
			}
			if rep.Failed > 0 {
				return fmt.Errorf("%d images failed", rep.Failed)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Prefix, "prefix", "venues/", "storage prefix to walk")
	f.StringVar(&presetsFile, "presets", "", "TOML presets file (defaults to IMAGES_PRESETS_FILE or built-in presets)")
	f.BoolVar(&opts.Verify, "verify", false, "only report originals missing variants")
	f.BoolVar(&opts.Update, "update", false, "point venue images at the large variant")
	f.BoolVar(&opts.DryRun, "dry-run", false, "print what would be written")
	return cmd
}
