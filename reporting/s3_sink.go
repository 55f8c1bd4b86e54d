package reporting

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

// PutObjectAPI is the part of the S3 client the publisher needs
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds configuration for report publishing
type S3Config struct {
	Bucket string
	Prefix string
	// Region is the AWS region of the bucket
	Region string
	// Endpoint is an optional custom endpoint (MinIO, LocalStack)
	Endpoint string
}

// S3Sink uploads everything the local sinks wrote under
// <prefix>/<runID>/ in a bucket
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	dir    string
}

// NewS3Sink builds an S3 client from the default AWS credential chain
func NewS3Sink(ctx context.Context, dir string, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: no bucket configured")
	}
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return NewS3SinkWithClient(s3.NewFromConfig(awsCfg, s3Opts...), dir, cfg), nil
}

// NewS3SinkWithClient creates a publisher with a pre-configured client
func NewS3SinkWithClient(client PutObjectAPI, dir string, cfg S3Config) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		dir:    dir,
	}
}

func (s *S3Sink) Name() string {
	return "s3"
}

// ObjectKey is where a file relative to the output directory is stored
func (s *S3Sink) ObjectKey(runID, rel string) string {
	return path.Join(s.prefix, runID, filepath.ToSlash(rel))
}

func (s *S3Sink) Write(ctx context.Context, result *types.OverallResult) error {
	if s.dir == "" {
		return ErrNoOutputDir
	}
	return filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		return s.upload(ctx, p, s.ObjectKey(result.RunID, rel))
	})
}

func (s *S3Sink) upload(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("s3: failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3: failed to upload %s: %w", key, err)
	}
	return nil
}
