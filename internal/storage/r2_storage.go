package storage

import (
	"fmt"
	"strings"

	"huchenghe/internal/config"
)

// r2ConfigFrom 读取 STORAGE_R2_* 配置。未配置 endpoint 时由 account id 推导，R2 固定使用 path-style。
func r2ConfigFrom(cfg config.Config) remoteS3Config {
	endpoint := normalizeEndpoint(cfg.StorageR2Endpoint)
	if accountID := strings.TrimSpace(cfg.StorageR2AccountID); endpoint == "" && accountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}
	region := strings.TrimSpace(cfg.StorageR2Region)
	if region == "" {
		region = "auto"
	}
	return remoteS3Config{
		Name:            "R2",
		Bucket:          strings.TrimSpace(cfg.StorageR2Bucket),
		Prefix:          trimPrefix(cfg.StorageR2Prefix),
		Region:          region,
		Endpoint:        endpoint,
		AccessKeyID:     strings.TrimSpace(cfg.StorageR2AccessKeyID),
		SecretAccessKey: strings.TrimSpace(cfg.StorageR2SecretAccessKey),
		ForcePathStyle:  true,
	}
}

// NewR2Storage 通过 S3 兼容接口访问 Cloudflare R2
func NewR2Storage(cfg config.Config) (Storage, error) {
	rc := r2ConfigFrom(cfg)
	if rc.Endpoint == "" {
		return nil, fmt.Errorf("storage: missing R2 endpoint or account id")
	}
	store, err := newRemoteS3Storage(rc)
	if err != nil {
		return nil, err
	}
	return store, nil
}
