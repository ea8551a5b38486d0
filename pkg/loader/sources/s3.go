package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures S3 access for s3:// inputs.
type S3Options struct {
	// Region is the AWS region. Empty uses the default chain.
	Region string

	// Endpoint overrides the S3 endpoint for compatible services
	// (MinIO, LocalStack).
	Endpoint string

	// UsePathStyle forces path-style addressing.
	UsePathStyle bool

	// Static credentials; the default chain applies when empty.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// DownloadTimeout bounds each object fetch.
	DownloadTimeout time.Duration
}

// S3Source reads one object from S3.
type S3Source struct {
	uri    string
	bucket string
	key    string
	client *s3.Client
	opts   S3Options
}

// NewS3Source creates a source for an s3://bucket/key URI.
func NewS3Source(ctx context.Context, uri string, opts S3Options) (*S3Source, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("sources: invalid s3 uri %q", uri)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				opts.AccessKeyID,
				opts.SecretAccessKey,
				opts.SessionToken,
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("sources: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Source{
		uri:    uri,
		bucket: bucket,
		key:    key,
		client: client,
		opts:   opts,
	}, nil
}

// Name returns the s3:// URI.
func (s *S3Source) Name() string { return s.uri }

// Open fetches the object body. The download timeout covers the whole
// transfer, not just the initial response.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if s.opts.DownloadTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.opts.DownloadTimeout)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sources: get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return &cancelOnClose{ReadCloser: out.Body, cancel: cancel}, nil
}

// cancelOnClose releases the download context when the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
