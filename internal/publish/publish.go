// Package publish uploads a certified table to an S3-compatible bucket
// (AWS S3 or MinIO) next to a sha256sum-style checksum object.
package publish

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrConflict is returned when the key already holds different content.
var ErrConflict = errors.New("object exists with different content")

// Config holds the connection parameters.
type Config struct {
	Bucket          string
	Region          string // default us-east-1
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	PathStyle       bool
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	// HTTPClient replaces the SDK's client, mainly for tests.
	HTTPClient *http.Client
}

// Publisher writes tables to one bucket.
type Publisher struct {
	client *s3.Client
	bucket string
}

// Result describes a finished publish.
type Result struct {
	Key      string
	Checksum string
	// Unchanged is set when the key already held identical content.
	Unchanged bool
}

// New creates a Publisher from cfg.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &Publisher{client: client, bucket: cfg.Bucket}, nil
}

// Publish writes body to key and its SHA-256 to key+".sha256". Publishing
// the same content twice is a no-op, except that a missing or stale
// checksum object is rewritten; publishing different content to an
// existing key fails with ErrConflict.
func (p *Publisher) Publish(ctx context.Context, key string, body []byte) (Result, error) {
	sum := checksum(body)
	res := Result{Key: key, Checksum: sum}

	existing, found, err := p.fetch(ctx, key)
	if err != nil {
		return res, err
	}
	if found {
		if checksum(existing) != sum {
			return res, fmt.Errorf("%w: s3://%s/%s", ErrConflict, p.bucket, key)
		}
		res.Unchanged = true
		if err := p.ensureChecksum(ctx, key, sum); err != nil {
			return res, err
		}
		slog.Info("table already published", "bucket", p.bucket, "key", key, "checksum", sum)
		return res, nil
	}

	if err := p.put(ctx, key, body, "text/plain; charset=utf-8", map[string]string{"sha256": sum}); err != nil {
		return res, err
	}
	if err := p.putChecksum(ctx, key, sum); err != nil {
		return res, err
	}
	slog.Info("table published", "bucket", p.bucket, "key", key, "checksum", sum, "bytes", len(body))
	return res, nil
}

// ensureChecksum rewrites key+".sha256" unless it already holds sum.
func (p *Publisher) ensureChecksum(ctx context.Context, key, sum string) error {
	current, found, err := p.fetch(ctx, key+".sha256")
	if err != nil {
		return err
	}
	if found && string(current) == checksumLine(key, sum) {
		return nil
	}
	slog.Warn("restoring checksum object", "bucket", p.bucket, "key", key+".sha256")
	return p.putChecksum(ctx, key, sum)
}

func (p *Publisher) putChecksum(ctx context.Context, key, sum string) error {
	return p.put(ctx, key+".sha256", []byte(checksumLine(key, sum)), "text/plain; charset=utf-8", nil)
}

// checksumLine is the sha256sum(1) line for key.
func checksumLine(key, sum string) string {
	return fmt.Sprintf("%s  %s\n", sum, path.Base(key))
}

func (p *Publisher) put(ctx context.Context, key string, body []byte, contentType string, meta map[string]string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &p.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

// fetch returns the content of key, or found=false if it does not exist.
func (p *Publisher) fetch(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &p.bucket, Key: &key})
	if err != nil {
		var status interface{ HTTPStatusCode() int }
		if errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get s3://%s/%s: %w", p.bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read s3://%s/%s: %w", p.bucket, key, err)
	}
	return data, true, nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
