package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewS3Client(logger *slog.Logger, client AWSS3Client, presigner AWSS3Presigner, uploader AWSS3Uploader) *S3Client {
	return &S3Client{
		logger:    logger,
		client:    client,
		presigner: presigner,
		uploader:  uploader,
	}
}

// NewS3ClientFromConfig creates a client using an endpoint other than AWS if endpoint is set. Path
// style addressing is used for such endpoints as S3 compatible stores like MinIO expect it.
func NewS3ClientFromConfig(logger *slog.Logger, cfg aws.Config, endpoint string) *S3Client {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Client(logger, client, s3.NewPresignClient(client), manager.NewUploader(client))
}

// S3Client stores the released installer binaries.
type S3Client struct {
	logger    *slog.Logger
	client    AWSS3Client
	presigner AWSS3Presigner
	uploader  AWSS3Uploader
}

type AWSS3Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type AWSS3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type AWSS3Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

func (s S3Client) Upload(ctx context.Context, bucket string, key string, body io.Reader, contentType string) error {
	// only use ctx for values (logging) and not cancellation signals for now. an interrupted upload
	// leaves a partial release behind.
	ctx = context.WithoutCancel(ctx)

	s.logger.InfoContext(ctx, "Uploading", "bucket", bucket, "key", key)
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("error uploading object to bucket %q using key %q: %s", bucket, key, err)
	}
	return nil
}

// Exists reports whether an object with given key exists.
func (s S3Client) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("error looking up object in bucket %q using key %q: %s", bucket, key, err)
	}
	return true, nil
}

// PresignGet returns a URL which can be used to download the object without credentials until ttl
// has passed.
func (s S3Client) PresignGet(ctx context.Context, bucket string, key string, ttl time.Duration) (string, error) {
	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("error presigning object in bucket %q using key %q: %s", bucket, key, err)
	}
	return request.URL, nil
}
