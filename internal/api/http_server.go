package api

import (
	"strconv"
	"strings"
	"time"

	"huchenghe/internal/auth"
	"huchenghe/internal/config"
	"huchenghe/internal/filemgr"
	"huchenghe/internal/model"
	"huchenghe/internal/service"
	"huchenghe/internal/storage"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager

	// 服务层
	catalog *service.CatalogService
	files   *filemgr.Manager
}

// NewHTTPHandler 创建 HTTP 处理器实例。files 为空时存储管理接口返回 503。
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, files *filemgr.Manager) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	return &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		catalog:           service.NewCatalogService(repo, store),
		files:             files,
	}, nil
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// parseIDParam 解析路径中的正整数 id
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// repoReady 数据库未配置时直接返回 503
func (h *HTTPHandler) repoReady(c *gin.Context) bool {
	if h.repo == nil {
		ServiceUnavailable(c, "数据库未初始化")
		return false
	}
	return true
}
