package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"huchenghe/internal/filemgr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const storageScanTimeout = 2 * time.Minute

// storageResponse 存储管理接口统一使用 {success, data, message} 包装
type storageResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type deleteFileRequest struct {
	FilePath string `json:"filePath"`
}

type batchDeleteRequest struct {
	FilePaths []string `json:"filePaths"`
}

func (h *HTTPHandler) filesReady(c *gin.Context) bool {
	if h.files == nil {
		ServiceUnavailable(c, "存储目录未初始化")
		return false
	}
	return true
}

func respondStorage(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, storageResponse{Success: true, Data: data, Message: message})
}

// StorageInfo GET /storage/info
func (h *HTTPHandler) StorageInfo(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	info, err := h.files.Info(ctx)
	if err != nil {
		respondError(c, err, "获取存储信息失败")
		return
	}
	respondStorage(c, info, "")
}

// ListStorageFiles GET /storage/files
func (h *HTTPHandler) ListStorageFiles(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	var query filemgr.FileListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "无效的查询参数")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	list, err := h.files.ListFiles(ctx, query)
	if err != nil {
		respondError(c, err, "获取文件列表失败")
		return
	}
	respondStorage(c, list, "")
}

// DeleteStorageFile DELETE /storage/files/:fileId，实际以 body 中的 filePath 为准
func (h *HTTPHandler) DeleteStorageFile(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		MissingField(c, "filePath")
		return
	}

	if err := h.files.Delete(req.FilePath); err != nil {
		logrus.WithError(err).WithField("file_path", req.FilePath).Warn("failed to delete storage file")
		respondError(c, err, "删除文件失败")
		return
	}
	respondStorage(c, nil, "文件删除成功")
}

// BatchDeleteStorageFiles DELETE /storage/files/batch-delete，逐个删除并汇总结果
func (h *HTTPHandler) BatchDeleteStorageFiles(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.FilePaths) == 0 {
		BadRequest(c, ErrCodeMissingField, "请选择要删除的文件")
		return
	}

	result := h.files.BatchDelete(req.FilePaths)
	respondStorage(c, result, fmt.Sprintf("成功删除 %d 个文件", result.TotalDeleted))
}

// DownloadStorageFile GET /storage/files/:fileId/download?filePath=
func (h *HTTPHandler) DownloadStorageFile(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	abs, name, err := h.files.Open(c.Query("filePath"))
	if err != nil {
		respondError(c, err, "下载文件失败")
		return
	}
	c.FileAttachment(abs, name)
}

// ScanCleanup GET /storage/cleanup/scan
func (h *HTTPHandler) ScanCleanup(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	stats, err := h.files.ScanCleanup(ctx)
	if err != nil {
		respondError(c, err, "扫描清理文件失败")
		return
	}
	respondStorage(c, stats, "")
}

// ExecuteCleanup POST /storage/cleanup/execute
func (h *HTTPHandler) ExecuteCleanup(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	var opts filemgr.CleanupOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	result, err := h.files.ExecuteCleanup(ctx, opts)
	if err != nil {
		respondError(c, err, "执行清理失败")
		return
	}
	logrus.WithField("result", result).Info("storage cleanup executed")
	respondStorage(c, result, "清理操作完成")
}

// QuickCleanup POST /storage/cleanup/quick，只清理临时文件和空目录
func (h *HTTPHandler) QuickCleanup(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	result, err := h.files.QuickCleanup(ctx)
	if err != nil {
		respondError(c, err, "快速清理失败")
		return
	}
	respondStorage(c, result, "快速清理完成")
}

// GetStorageSettings GET /storage/settings
func (h *HTTPHandler) GetStorageSettings(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	respondStorage(c, h.files.Settings(), "")
}

// UpdateStorageSettings PUT /storage/settings，未提交的字段保持原值
func (h *HTTPHandler) UpdateStorageSettings(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	settings := h.files.Settings()
	if err := c.ShouldBindJSON(&settings); err != nil {
		InvalidPayload(c)
		return
	}

	updated, err := h.files.UpdateSettings(settings)
	if err != nil {
		respondError(c, err, "更新存储设置失败")
		return
	}
	respondStorage(c, updated, "设置更新成功")
}

// FileTypeStats GET /storage/stats/file-types
func (h *HTTPHandler) FileTypeStats(c *gin.Context) {
	if !h.filesReady(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), storageScanTimeout)
	defer cancel()

	stats, err := h.files.FileTypeStats(ctx)
	if err != nil {
		respondError(c, err, "获取文件类型统计失败")
		return
	}
	respondStorage(c, stats, "")
}
