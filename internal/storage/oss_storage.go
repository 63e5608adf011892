package storage

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"huchenghe/internal/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/pkg/errors"
)

// ossConfig 阿里云 OSS 连接参数
type ossConfig struct {
	Endpoint        string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	AccessKeySecret string
}

func ossConfigFrom(cfg config.Config) ossConfig {
	return ossConfig{
		Endpoint:        strings.TrimSpace(cfg.StorageOSSEndpoint),
		Bucket:          strings.TrimSpace(cfg.StorageOSSBucket),
		Prefix:          trimPrefix(cfg.StorageOSSPrefix),
		AccessKeyID:     strings.TrimSpace(cfg.StorageOSSAccessKeyID),
		AccessKeySecret: strings.TrimSpace(cfg.StorageOSSAccessKeySecret),
	}
}

func (c ossConfig) validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("storage: missing OSS endpoint")
	case c.Bucket == "":
		return errors.New("storage: missing OSS bucket")
	case c.AccessKeyID == "" || c.AccessKeySecret == "":
		return errors.New("storage: missing OSS credentials")
	}
	return nil
}

type ossStorage struct {
	bucket *oss.Bucket
	prefix string
}

func NewOSSStorage(cfg config.Config) (Storage, error) {
	oc := ossConfigFrom(cfg)
	if err := oc.validate(); err != nil {
		return nil, err
	}
	client, err := oss.New(oc.Endpoint, oc.AccessKeyID, oc.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "storage: create OSS client")
	}
	bucket, err := client.Bucket(oc.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: open OSS bucket %s", oc.Bucket)
	}
	return &ossStorage{bucket: bucket, prefix: oc.Prefix}, nil
}

func (s *ossStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, err := prepareSave(ctx, data, opts, s.prefix)
	if err != nil {
		return "", err
	}

	if opts.SkipIfExists {
		exists, err := s.bucket.IsObjectExist(key, oss.WithContext(ctx))
		if err != nil {
			return "", errors.Wrapf(err, "check object %s", key)
		}
		if exists {
			return key, nil
		}
	}

	err = s.bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(detectContentType(opts.Extension)),
	)
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return key, nil
}

// Delete 删除上传回滚时留下的对象，对象不存在视为成功
func (s *ossStorage) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanObjectKey(key)
	if err != nil {
		return err
	}
	if err := s.bucket.DeleteObject(cleaned, oss.WithContext(ctx)); err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return errors.Wrapf(err, "delete object %s", cleaned)
	}
	return nil
}

var _ Storage = (*ossStorage)(nil)
