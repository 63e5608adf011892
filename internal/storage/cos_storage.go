package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"huchenghe/internal/config"

	"github.com/pkg/errors"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// cosConfig 腾讯云 COS 连接参数，BucketURL 形如 https://<bucket>-<appid>.cos.<region>.myqcloud.com
type cosConfig struct {
	BucketURL string
	Prefix    string
	SecretID  string
	SecretKey string
}

func cosConfigFrom(cfg config.Config) cosConfig {
	return cosConfig{
		BucketURL: strings.TrimSpace(cfg.StorageCOSBucketURL),
		Prefix:    trimPrefix(cfg.StorageCOSPrefix),
		SecretID:  strings.TrimSpace(cfg.StorageCOSSecretID),
		SecretKey: strings.TrimSpace(cfg.StorageCOSSecretKey),
	}
}

func (c cosConfig) validate() (*url.URL, error) {
	if c.BucketURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	u, err := url.Parse(c.BucketURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("storage: invalid COS bucket URL %q", c.BucketURL)
	}
	if c.SecretID == "" || c.SecretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}
	return u, nil
}

type cosStorage struct {
	client *cos.Client
	prefix string
}

func NewCOSStorage(cfg config.Config) (Storage, error) {
	cc := cosConfigFrom(cfg)
	bucketURL, err := cc.validate()
	if err != nil {
		return nil, err
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{SecretID: cc.SecretID, SecretKey: cc.SecretKey},
	})
	return &cosStorage{client: client, prefix: cc.Prefix}, nil
}

func (s *cosStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, err := prepareSave(ctx, data, opts, s.prefix)
	if err != nil {
		return "", err
	}

	if opts.SkipIfExists {
		exists, err := s.exists(ctx, key)
		if err != nil {
			return "", err
		}
		if exists {
			return key, nil
		}
	}

	resp, err := s.client.Object.Put(ctx, key, bytes.NewReader(data), &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: detectContentType(opts.Extension)},
	})
	closeCOSResponse(resp)
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return key, nil
}

func (s *cosStorage) exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.client.Object.Head(ctx, key, nil)
	closeCOSResponse(resp)
	switch {
	case err == nil:
		return true, nil
	case cos.IsNotFoundError(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "head object %s", key)
	}
}

// Delete 删除上传回滚时留下的对象，对象不存在视为成功
func (s *cosStorage) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanObjectKey(key)
	if err != nil {
		return err
	}
	resp, err := s.client.Object.Delete(ctx, cleaned)
	closeCOSResponse(resp)
	if err != nil && !cos.IsNotFoundError(err) {
		return errors.Wrapf(err, "delete object %s", cleaned)
	}
	return nil
}

func closeCOSResponse(resp *cos.Response) {
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

var _ Storage = (*cosStorage)(nil)
