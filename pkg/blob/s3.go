package blob

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3 blob store.
type S3Config struct {
	// Bucket is the bucket holding conversion payloads.
	Bucket string

	// Region is the AWS region.
	Region string

	// Endpoint, when set, points the client at an S3-compatible service
	// (MinIO, localstack). Path-style addressing is used in that case.
	Endpoint string
}

// S3Store implements Store on an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

// NewS3Store builds an S3 client from the ambient AWS credential chain.
func NewS3Store(ctx context.Context, config S3Config) (*S3Store, error) {
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: config.Bucket,
		logger: slog.Default().With("component", "blob.s3"),
	}, nil
}

// Delete removes the object stored under key. S3 treats deleting a missing
// key as success, which matches the Store contract.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}

	s.logger.Debug("Blob deleted", "bucket", s.bucket, "key", key)
	return nil
}
