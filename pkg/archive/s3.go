// Package archive exports promotion-ledger rows to S3-compatible
// object storage for long-term retention, independent of the ledger
// database's own retention policy. It plays no role in the election
// state machine; it is driven by pkg/lifecycle.Service (once on
// shutdown and on an optional interval), not by the Controller.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/tso-lease/pkg/ledger"
)

// Config configures the S3 archiver.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional, for S3-compatible backends (minio, localstack)
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// Archiver writes promotion ledger rows to S3 as newline-delimited
// JSON objects, one object per archive run.
type Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewClientFromConfig builds an *s3.Client from explicit connection
// parameters, the same shape used to point at S3-compatible backends
// in development (localstack, minio) as in production.
func NewClientFromConfig(ctx context.Context, cfg Config) (*s3.Client, error) {
	var optFns []func(*config.LoadOptions) error
	optFns = append(optFns, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("archive: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			o.BaseEndpoint = &endpoint
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return client, nil
}

// New builds an Archiver on top of an already-constructed S3 client.
func New(client *s3.Client, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// ArchivePromotions uploads the given promotion rows as a single
// newline-delimited JSON object keyed by the current timestamp.
// Returns the object key written.
func (a *Archiver) ArchivePromotions(ctx context.Context, rows []ledger.Promotion, at time.Time) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return "", fmt.Errorf("archive: encode promotion %d: %w", row.Epoch, err)
		}
	}

	key := archiveKey(a.prefix, at)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put object %s: %w", key, err)
	}

	return key, nil
}

func archiveKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%s/promotions-%s.ndjson", prefix, at.UTC().Format("20060102T150405Z"))
}
