package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of *s3.Client used by S3Sink.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink stores snapshots in an S3 bucket.
//
// Example usage:
//
//	cfg := aws.Config{Region: "us-east-1", Credentials: creds}
//	sink := snapshot.NewS3Sink(s3.NewFromConfig(cfg), "my-bucket", "snapshots/", 0)
type S3Sink struct {
	client  PutObjectAPI
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Sink creates a sink writing objects under prefix in bucket.
func NewS3Sink(client PutObjectAPI, bucket, prefix string, maxSize int64) *S3Sink {
	return &S3Sink{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		maxSize: maxSize,
	}
}

// ObjectKey returns the S3 key a snapshot key is stored under.
func (s *S3Sink) ObjectKey(key string) string {
	return s.prefix + key + ".json"
}

// Put uploads data as a single object.
func (s *S3Sink) Put(ctx context.Context, meta Meta, data []byte) error {
	if s.maxSize > 0 && int64(len(data)) > s.maxSize {
		return ErrTooLarge
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.ObjectKey(meta.Key)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(meta.ContentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"snapshot-key":  meta.Key,
			"snapshot-size": strconv.FormatInt(meta.Size, 10),
			"snapshot-time": meta.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}
