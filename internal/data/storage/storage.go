package storage

import (
	"context"
	"fmt"
	"io"

	"bank-backoffice/pkg/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectStorage stores generated files such as reports.
type ObjectStorage interface {
	Upload(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) (string, error)
}

type minioStorage struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewClient(config utils.StorageConfig) (*minio.Client, error) {
	return minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
}

func NewMinioStorage(client *minio.Client, bucket string, log *zap.Logger) ObjectStorage {
	return &minioStorage{
		client: client,
		bucket: bucket,
		log:    log.With(zap.String("storage", "minio"), zap.String("bucket", bucket)),
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Upload writes the object and returns its location as bucket/objectName.
func (s *minioStorage) Upload(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.log.Error("Failed to upload object", zap.Error(err), zap.String("object", objectName))
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	s.log.Info("Object uploaded",
		zap.String("object", info.Key),
		zap.Int64("size", info.Size),
	)

	return s.bucket + "/" + info.Key, nil
}
