package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// trashPrefix is the key prefix trashed objects move under.
const trashPrefix = "trash/"

// S3 is a Store backed by an S3 bucket; the reference is the object key.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3-backed blob store. Credentials and region come from
// the default AWS config chain (env, shared config, instance role).
func NewS3(ctx context.Context, bucket string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	slog.Info("S3 blob store initialized", "bucket", bucket)
	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewS3WithClient wraps an existing client. Used by tests.
func NewS3WithClient(client *s3.Client, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func (s *S3) Content(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}
	return data, nil
}

func (s *S3) Size(ctx context.Context, ref string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to stat blob %s: %w", ref, err)
	}
	if out.ContentLength == nil {
		return 0, fmt.Errorf("no content length for blob %s", ref)
	}
	return *out.ContentLength, nil
}

// Trash moves the object under the trash/ prefix. The copy-then-delete is
// not atomic; a crash in between leaves the original in place, which is the
// safe side for best-effort cleanup.
func (s *S3) Trash(ctx context.Context, ref string) error {
	source := s.bucket + "/" + ref
	dest := trashPrefix + ref

	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     &s.bucket,
		CopySource: &source,
		Key:        &dest,
	}); err != nil {
		return fmt.Errorf("failed to copy blob %s to trash: %w", ref, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	}); err != nil {
		return fmt.Errorf("failed to delete blob %s after trash copy: %w", ref, err)
	}
	return nil
}

var _ Store = (*S3)(nil)
