package api

import (
	"net/http"
	"strings"

	"huchenghe/internal/storage"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 挂载 /api 下的全部接口和本地上传文件的静态访问路径
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	// 登录，/auth/login 为前端使用的别名
	{
		api.POST("/login", h.Login)
		api.POST("/auth/login", h.Login)
		api.GET("/auth/me", h.AuthMiddleware(), h.Me)
	}

	// 模型管理
	models := api.Group("/models")
	{
		models.GET("", h.ListModels)
		models.GET("/count", h.CountModels)
		models.POST("", h.CreateModel)
		models.POST("/upload", h.UploadModel)
		models.GET("/:id", h.GetModel)
		models.PUT("/:id", h.UpdateModel)
		models.DELETE("/:id", h.DeleteModel)
	}

	// 用户管理
	users := api.Group("/users", h.adminGuard()...)
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	// 存储管理
	store := api.Group("/storage", h.adminGuard()...)
	{
		store.GET("/info", h.StorageInfo)
		store.GET("/files", h.ListStorageFiles)
		store.DELETE("/files/batch-delete", h.BatchDeleteStorageFiles)
		store.DELETE("/files/:fileId", h.DeleteStorageFile)
		store.GET("/files/:fileId/download", h.DownloadStorageFile)
		store.GET("/cleanup/scan", h.ScanCleanup)
		store.POST("/cleanup/execute", h.ExecuteCleanup)
		store.POST("/cleanup/quick", h.QuickCleanup)
		store.GET("/settings", h.GetStorageSettings)
		store.PUT("/settings", h.UpdateStorageSettings)
		store.GET("/stats/file-types", h.FileTypeStats)
	}

	h.mountLocalFiles(r)
}

// mountLocalFiles 本地存储时按 STORAGE_PUBLIC_BASE_URL 暴露上传的文件
func (h *HTTPHandler) mountLocalFiles(r *gin.Engine) {
	localProvider, ok := h.storage.(storage.LocalBaseDirProvider)
	if !ok {
		return
	}
	base := h.storagePublicBase
	if base == "" || strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return
	}
	r.Static(base, localProvider.LocalBaseDir())
}

// apiNotFound 未匹配的 /api 路径返回 JSON 404，其余交给前端路由
func apiNotFound(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
		NotFound(c, ErrCodeNotFound, "找不到该路径")
		return true
	}
	return false
}

// NoRouteHandler 404 处理。index 非空时对非 /api 路径回退到前端入口页。
func NoRouteHandler(index string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiNotFound(c) {
			return
		}
		if index != "" && c.Request.Method == http.MethodGet {
			c.File(index)
			return
		}
		NotFound(c, ErrCodeNotFound, "找不到该路径")
	}
}
