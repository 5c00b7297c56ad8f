package db

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	appconfig "github.com/techagentng/firesafe/config"
	errs "github.com/techagentng/firesafe/errors"
)

// ObjectStorage holds uploaded photos, documents and plans.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, string, error)
	KeyFromURL(rawURL string) (string, error)
}

var ErrUnresolvableKey = errors.New("url does not point into the storage bucket")

type s3Storage struct {
	client   *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewS3Storage returns a configuration error when credentials are missing;
// callers keep running without storage and report it per request.
func NewS3Storage(c *appconfig.Config) (ObjectStorage, error) {
	if !c.StorageConfigured() {
		return nil, errs.Configuration("object storage")
	}
	client, err := createS3Client(c)
	if err != nil {
		return nil, err
	}
	return &s3Storage{
		client:   client,
		bucket:   c.AWSBucket,
		region:   c.AWSRegion,
		endpoint: c.AWSEndpoint,
	}, nil
}

func createS3Client(c *appconfig.Config) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(c.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AWSAccessKeyID,
			c.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(c.AWSEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *s3Storage) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload file to S3")
	}
	return s.objectURL(key), nil
}

func (s *s3Storage) Download(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to download file from S3")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read S3 object")
	}
	return data, aws.ToString(out.ContentType), nil
}

func (s *s3Storage) KeyFromURL(rawURL string) (string, error) {
	return ResolveObjectKey(rawURL, s.bucket, s.endpoint)
}

func (s *s3Storage) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ResolveObjectKey turns a public object URL into its key inside bucket.
// Accepted shapes: virtual-hosted S3 (bucket.s3.region.amazonaws.com/key),
// path-style S3 or custom endpoint (host/bucket/key) and the hosted storage
// public path (/storage/v1/object/public/bucket/key).
func ResolveObjectKey(rawURL, bucket, endpoint string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", ErrUnresolvableKey
	}
	path := strings.TrimPrefix(u.Path, "/")

	const publicPrefix = "storage/v1/object/public/"
	if strings.HasPrefix(path, publicPrefix) {
		return keyAfterBucket(strings.TrimPrefix(path, publicPrefix), bucket)
	}

	host := strings.ToLower(u.Hostname())
	if strings.HasPrefix(host, strings.ToLower(bucket)+".s3.") && strings.HasSuffix(host, ".amazonaws.com") {
		if path == "" {
			return "", ErrUnresolvableKey
		}
		return path, nil
	}

	isPathStyle := strings.HasPrefix(host, "s3.") && strings.HasSuffix(host, ".amazonaws.com")
	if endpoint != "" {
		if e, err := url.Parse(endpoint); err == nil && strings.EqualFold(e.Hostname(), host) {
			isPathStyle = true
		}
	}
	if isPathStyle {
		return keyAfterBucket(path, bucket)
	}
	return "", ErrUnresolvableKey
}

func keyAfterBucket(path, bucket string) (string, error) {
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] != bucket || parts[1] == "" {
		return "", ErrUnresolvableKey
	}
	return parts[1], nil
}
