package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/storage"
)

type Config struct {
	// Endpoint with or without scheme: "http://minio:9000" or "minio:9000"
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Store keeps assets as objects in one S3 compatible bucket
type Store struct {
	client *mclient.Client
	bucket string
}

var _ storage.Store = (*Store)(nil)

// New creates minio client and makes sure the bucket exists, creating it if needed
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio: empty bucket name")
	}

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, mclient.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: make bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio: put object: %w", err)
	}

	return nil
}

// Delete relies on S3 semantics: removing missing object succeeds
func (s *Store) Delete(ctx context.Context, key string) error {
	key, err := storage.CleanKey(key)
	if err != nil {
		return err
	}

	err = s.client.RemoveObject(ctx, s.bucket, key, mclient.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("minio: remove object: %w", err)
	}

	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadSeekCloser, storage.ObjectInfo, error) {
	var info storage.ObjectInfo

	key, err := storage.CleanKey(key)
	if err != nil {
		return nil, info, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, mclient.GetObjectOptions{})
	if err != nil {
		return nil, info, fmt.Errorf("minio: get object: %w", err)
	}

	// GetObject is lazy, errors show up on first request to the object
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNotFound(err) {
			return nil, info, apperrors.ErrAssetNotFound
		}
		return nil, info, fmt.Errorf("minio: stat object: %w", err)
	}

	info = storage.ObjectInfo{
		Size:        stat.Size,
		ContentType: stat.ContentType,
		ModTime:     stat.LastModified,
	}

	return obj, info, nil
}

func isNotFound(err error) bool {
	resp := mclient.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
