package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JonMunkholm/logbookscan/internal/config"
)

// ErrStorageNotConfigured is returned when an s3:// reference is used
// without storage credentials.
var ErrStorageNotConfigured = errors.New("s3 storage is not configured")

// ObjectGetter is the subset of the S3 client used for fetching payloads.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher reads analysis payloads stored in S3 or S3-compatible storage.
type S3Fetcher struct {
	client  ObjectGetter
	maxSize int64
}

// NewS3Fetcher creates a fetcher from storage configuration. maxSize caps
// the bytes read per object; 0 means no cap.
func NewS3Fetcher(cfg config.StorageConfig, maxSize int64) (*S3Fetcher, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageNotConfigured
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return NewS3FetcherWithClient(s3.New(opts), maxSize), nil
}

// NewS3FetcherWithClient creates a fetcher around an existing client.
func NewS3FetcherWithClient(client ObjectGetter, maxSize int64) *S3Fetcher {
	return &S3Fetcher{client: client, maxSize: maxSize}
}

// Fetch reads the object at an "s3://bucket/key" path.
func (f *S3Fetcher) Fetch(ctx context.Context, s3Path string) ([]byte, error) {
	bucket, key, err := ParseS3Path(s3Path)
	if err != nil {
		return nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", s3Path, err)
	}
	defer out.Body.Close()

	var r io.Reader = out.Body
	if f.maxSize > 0 {
		r = io.LimitReader(out.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", s3Path, err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: %q exceeds %d bytes", ErrPayloadTooLarge, s3Path, f.maxSize)
	}
	return data, nil
}

// IsS3Path reports whether ref uses the s3:// scheme.
func IsS3Path(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}

// ParseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func ParseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", fmt.Errorf("parse S3 path %q: %w", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	if bucket == "" {
		return "", "", fmt.Errorf("empty bucket in S3 path %q", s3Path)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("empty key in S3 path %q", s3Path)
	}
	return bucket, key, nil
}
