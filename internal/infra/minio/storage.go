package minio

import (
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage keeps archived screenshot batches.
type Storage struct {
	client        *miniogo.Client
	archiveBucket string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	ArchiveBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{client: client, archiveBucket: cfg.ArchiveBucket}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.archiveBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.archiveBucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.archiveBucket, miniogo.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.archiveBucket, err)
	}
	return nil
}

func (s *Storage) UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.archiveBucket, objectKey, reader, size, miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("upload archive %s: %w", objectKey, err)
	}
	return nil
}

// ListArchives returns the object keys stored under batchKey.
func (s *Storage) ListArchives(ctx context.Context, batchKey string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.archiveBucket, miniogo.ListObjectsOptions{
		Prefix:    batchKey + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list archives: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
