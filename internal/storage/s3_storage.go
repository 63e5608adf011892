package storage

import (
	"bytes"
	"context"
	"strings"

	"huchenghe/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// remoteS3Config S3 与 R2 共用的连接参数
type remoteS3Config struct {
	Name            string
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

func (c remoteS3Config) validate() error {
	if c.Bucket == "" {
		return errors.Errorf("storage: missing %s bucket", c.Name)
	}
	if c.Region == "" {
		return errors.Errorf("storage: missing %s region", c.Name)
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return errors.Errorf("storage: missing %s credentials", c.Name)
	}
	return nil
}

// s3ConfigFrom 读取 STORAGE_S3_* 配置
func s3ConfigFrom(cfg config.Config) remoteS3Config {
	return remoteS3Config{
		Name:            "S3",
		Bucket:          strings.TrimSpace(cfg.StorageS3Bucket),
		Prefix:          trimPrefix(cfg.StorageS3Prefix),
		Region:          strings.TrimSpace(cfg.StorageS3Region),
		Endpoint:        normalizeEndpoint(cfg.StorageS3Endpoint),
		AccessKeyID:     strings.TrimSpace(cfg.StorageS3AccessKeyID),
		SecretAccessKey: strings.TrimSpace(cfg.StorageS3SecretAccessKey),
		SessionToken:    strings.TrimSpace(cfg.StorageS3SessionToken),
		ForcePathStyle:  cfg.StorageS3ForcePathStyle,
	}
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(raw), "/")
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// remoteS3Storage 存放上传的模型文件和图片，S3 与 R2 共用
type remoteS3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Storage 创建 S3 存储
func NewS3Storage(cfg config.Config) (Storage, error) {
	store, err := newRemoteS3Storage(s3ConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newRemoteS3Storage(rc remoteS3Config) (*remoteS3Storage, error) {
	if err := rc.validate(); err != nil {
		return nil, err
	}

	awsCfg := aws.Config{
		Region: rc.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(rc.AccessKeyID, rc.SecretAccessKey, rc.SessionToken),
		),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = rc.ForcePathStyle
		if rc.Endpoint != "" {
			o.BaseEndpoint = aws.String(rc.Endpoint)
		}
	})

	return &remoteS3Storage{
		client: client,
		bucket: rc.Bucket,
		prefix: rc.Prefix,
	}, nil
}

func (s *remoteS3Storage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	key, err := prepareSave(ctx, data, opts, s.prefix)
	if err != nil {
		return "", err
	}

	if opts.SkipIfExists {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
		if err == nil {
			return key, nil
		}
		if !isS3NotFound(err) {
			return "", errors.Wrapf(err, "head object %s", key)
		}
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(detectContentType(opts.Extension)),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return key, nil
}

// Delete 删除对象，S3 对不存在的 key 同样返回成功
func (s *remoteS3Storage) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanObjectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleaned),
	})
	if err != nil && !isS3NotFound(err) {
		return errors.Wrapf(err, "delete object %s", cleaned)
	}
	return nil
}

var _ Storage = (*remoteS3Storage)(nil)

func isS3NotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch strings.ToLower(apiErr.ErrorCode()) {
		case "notfound", "nosuchkey", "404":
			return true
		}
	}
	return false
}
