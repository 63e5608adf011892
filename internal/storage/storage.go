package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"huchenghe/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
	// TypeMinIO 表示自建 MinIO 存储。
	TypeMinIO = "minio"
)

// 上传分类，同时也是本地存储根目录下的一级目录
const (
	CategoryModels  = "models"
	CategoryImages  = "images"
	CategoryRenders = "renders"
)

var (
	// ErrEmptyPayload 上传内容为空
	ErrEmptyPayload = errors.New("empty payload")
	// ErrInvalidKey 对象键为空或越出存储根目录
	ErrInvalidKey = errors.New("invalid object key")
)

// SaveOptions 控制存储后端如何持久化文件。
//
// Category 用于组织目录，Extension 为文件扩展名（不含前导点），
// BaseName 为文件名主体，为空时使用时间戳。
type SaveOptions struct {
	Category     string
	Extension    string
	BaseName     string
	SkipIfExists bool
}

// Storage 持久化模型文件、图片和渲染图，返回的 key 会写入模型记录的路径字段。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
	// Delete 删除 Save 返回的 key，对象不存在时视为成功。
	Delete(ctx context.Context, key string) error
}

// LocalBaseDirProvider 由暴露可通过 HTTP 直接提供服务的本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		local, err := NewLocalStorage(cfg.StorageLocalDir)
		if err != nil {
			return nil, err
		}
		return local, nil
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	case TypeMinIO:
		return NewMinIOStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
