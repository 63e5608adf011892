package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"huchenghe/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioStorage struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOStorage 连接自建 MinIO，endpoint 可带或不带协议前缀。
func NewMinIOStorage(cfg config.Config) (Storage, error) {
	endpoint := strings.TrimSpace(cfg.StorageMinIOEndpoint)
	if endpoint == "" {
		return nil, errors.New("storage: missing MinIO endpoint")
	}
	bucket := strings.Trim(strings.TrimSpace(cfg.StorageMinIOBucket), "/")
	if bucket == "" {
		return nil, errors.New("storage: missing MinIO bucket")
	}
	accessKey := strings.TrimSpace(cfg.StorageMinIOAccessKey)
	secretKey := strings.TrimSpace(cfg.StorageMinIOSecretKey)
	if accessKey == "" || secretKey == "" {
		return nil, errors.New("storage: missing MinIO credentials")
	}

	host, secure, err := minioEndpoint(endpoint, cfg.StorageMinIOUseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       secure,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create MinIO client: %w", err)
	}

	return &minioStorage{
		client: client,
		bucket: bucket,
		prefix: trimPrefix(cfg.StorageMinIOPrefix),
	}, nil
}

func minioEndpoint(raw string, useSSL bool) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		return strings.TrimRight(raw, "/"), useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("storage: parse MinIO endpoint: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("storage: invalid MinIO endpoint %q", raw)
	}
	return parsed.Host, parsed.Scheme == "https", nil
}

func (s *minioStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, err := prepareSave(ctx, data, opts, s.prefix)
	if err != nil {
		return "", err
	}

	if opts.SkipIfExists {
		_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return key, nil
		}
		if minio.ToErrorResponse(err).StatusCode != 404 {
			return "", fmt.Errorf("stat object: %w", err)
		}
	}

	putOpts := minio.PutObjectOptions{ContentType: detectContentType(opts.Extension)}
	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), putOpts); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

func (s *minioStorage) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanObjectKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, cleaned, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

var _ Storage = (*minioStorage)(nil)
