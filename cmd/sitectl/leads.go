package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lieuxdexception/site/internal/leads"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/spf13/cobra"
)

func newSyncLeadsCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sync-leads",
		Short: "Push pending and failed leads to Odoo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var rep leads.SyncReport
			err := c.track(ctx, "sync-leads", os.Args[1:], func() (int, int, error) {
				var err error
				rep, err = c.deps.Leads.SyncPending(ctx, limit)
				return rep.Processed, rep.Failed, err
			})
			if err != nil {
				return err
			}
			c.report(cmd, rep, fmt.Sprintf("processed=%d synced=%d failed=%d", rep.Processed, rep.Synced, rep.Failed))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum leads to sync")
	return cmd
}

// exportWriter uploads an export payload; *storage.S3Exporter in production.
type exportWriter interface {
	Write(ctx context.Context, key string, data []byte) error
}

// newExporter is swapped in tests.
var newExporter = func(ctx context.Context, bucket, region, endpoint string) (exportWriter, error) {
	return storage.NewS3Exporter(ctx, bucket, region, endpoint)
}

func newExportLeadsCmd(c *cli) *cobra.Command {
	var bucket, key, region, endpoint string
	cmd := &cobra.Command{
		Use:   "export-leads",
		Short: "Back up every lead as JSON lines to S3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			exp := c.deps.Config.Export
			if bucket == "" {
				bucket = exp.Bucket
			}
			if region == "" {
				region = exp.Region
			}
			if endpoint == "" {
				endpoint = exp.Endpoint
			}
			if key == "" {
				key = fmt.Sprintf("leads/leads-%s.jsonl", time.Now().UTC().Format("20060102-150405"))
			}
			w, err := newExporter(ctx, bucket, region, endpoint)
			if err != nil {
				return err
			}

			var n int
			err = c.track(ctx, "export-leads", os.Args[1:], func() (int, int, error) {
				var buf bytes.Buffer
				var err error
				n, err = c.deps.Leads.ExportJSONL(ctx, &buf)
				if err != nil {
					return n, 0, err
				}
				return n, 0, w.Write(ctx, key, buf.Bytes())
			})
			if err != nil {
				return err
			}
			c.report(cmd, map[string]any{"bucket": bucket, "key": key, "leads": n},
				fmt.Sprintf("exported %d leads to s3://%s/%s", n, bucket, key))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&bucket, "bucket", "", "destination bucket (EXPORT_S3_BUCKET)")
	f.StringVar(&key, "key", "", "object key (default leads/leads-<timestamp>.jsonl)")
	f.StringVar(&region, "region", "", "AWS region (EXPORT_S3_REGION)")
	f.StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint, e.g. MinIO (EXPORT_S3_ENDPOINT)")
	return cmd
}
