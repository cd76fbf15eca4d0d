package archive

import (
	"bytes"
	"context"
	"fmt"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the bucket settings. Credentials come from the default
// AWS chain (environment, shared config, instance role).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for MinIO and other compatible services
	PathStyle bool
	Prefix    string
}

// S3 writes archived exports as objects in a single bucket.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds a client from cfg and the default credential chain.
func NewS3(ctx context.Context, cfg S3Config, optFns ...func(*config.LoadOptions) error) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3WithClient(s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), cfg), nil
}

func newS3WithClient(client *s3.Client, cfg S3Config) *S3 {
	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Bucket returns the target bucket name.
func (s *S3) Bucket() string { return s.bucket }

// Archive uploads data as prefix+name.
func (s *S3) Archive(ctx context.Context, name string, data []byte) error {
	key, err := cleanName(name)
	if err != nil {
		return err
	}
	key = s.prefix + key
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
