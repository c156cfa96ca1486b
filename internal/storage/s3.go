package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Exporter writes backup payloads (lead exports) to an S3-compatible bucket.
type S3Exporter struct {
	client *s3.Client
	bucket string
}

// NewS3Exporter loads the default AWS credential chain. A non-empty endpoint
// switches to path-style addressing for MinIO and similar services.
func NewS3Exporter(ctx context.Context, bucket, region, endpoint string) (*S3Exporter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("export bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	var opts []func(*s3.Options)
	if endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Exporter{client: s3.NewFromConfig(cfg, opts...), bucket: bucket}, nil
}

// Write uploads data under key.
func (e *S3Exporter) Write(ctx context.Context, key string, data []byte) error {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentTypeFor(key)),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
