package s3bucket

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Bucket struct {
	client *s3.Client
	bucket string
	region string

	// publicBaseUrl replaces the virtual-hosted S3 url when the bucket is
	// served through a CDN or a local emulator.
	publicBaseUrl string
}

type Options struct {
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint      string
	PublicBaseUrl string
}

func NewS3Bucket(cfg aws.Config, bucket string, opts Options) *S3Bucket {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Bucket{
		client:        client,
		bucket:        bucket,
		region:        cfg.Region,
		publicBaseUrl: strings.TrimSuffix(opts.PublicBaseUrl, "/"),
	}
}

func (bucket *S3Bucket) Bucket() string {
	return bucket.bucket
}

// Put uploads content under key with the given media type.
func (bucket *S3Bucket) Put(ctx context.Context, key string, content []byte, mediaType string) error {
	input := &s3.PutObjectInput{
		Bucket: &bucket.bucket,
		Key:    &key,
		Body:   bytes.NewReader(content),
	}
	if mediaType != "" {
		input.ContentType = &mediaType
	}
	_, err := bucket.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// URL returns the public object URL of key. Path segments are escaped so
// filenames with spaces or unicode stay resolvable.
func (bucket *S3Bucket) URL(key string) string {
	escaped := escapeKey(key)
	if bucket.publicBaseUrl != "" {
		return bucket.publicBaseUrl + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket.bucket, bucket.region, escaped)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
