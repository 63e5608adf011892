package filemgr

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType 按扩展名划分的文件类别
type FileType string

const (
	FileTypeModel    FileType = "model"
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"

	fileTypeAll = "all"
)

var fileTypeNames = map[FileType]string{
	FileTypeModel:    "模型文件",
	FileTypeImage:    "图片文件",
	FileTypeDocument: "文档文件",
	FileTypeOther:    "其他文件",
}

var extensionTypes = map[string]FileType{
	".obj": FileTypeModel, ".fbx": FileTypeModel, ".dae": FileTypeModel, ".3ds": FileTypeModel,
	".max": FileTypeModel, ".blend": FileTypeModel, ".stl": FileTypeModel, ".glb": FileTypeModel,
	".gltf": FileTypeModel,

	".jpg": FileTypeImage, ".jpeg": FileTypeImage, ".png": FileTypeImage, ".gif": FileTypeImage,
	".bmp": FileTypeImage, ".tiff": FileTypeImage, ".webp": FileTypeImage,

	".pdf": FileTypeDocument, ".doc": FileTypeDocument, ".docx": FileTypeDocument,
	".txt": FileTypeDocument, ".rtf": FileTypeDocument, ".odt": FileTypeDocument,
}

// ClassifyFile 根据扩展名返回文件类别
func ClassifyFile(name string) FileType {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return FileTypeOther
}

// TypeName 返回类别的中文名称
func (t FileType) TypeName() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return fileTypeNames[FileTypeOther]
}

// FileInfo 文件列表中的一项，Path 为相对根目录的路径
type FileInfo struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type"`
	TypeName   string    `json:"typeName"`
	Size       int64     `json:"size"`
	CreateTime time.Time `json:"createTime"`
	Path       string    `json:"path"`
}

// FileListQuery GET /storage/files 的查询参数
type FileListQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Search   string `form:"search"`
	Type     string `form:"type"`
}

// FileList 分页后的文件列表
type FileList struct {
	Files    []FileInfo `json:"files"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

// StorageInfo 磁盘空间和文件数量
type StorageInfo struct {
	TotalSpace      uint64 `json:"totalSpace"`
	UsedSpace       uint64 `json:"usedSpace"`
	FreeSpace       uint64 `json:"freeSpace"`
	AvailableSpace  uint64 `json:"availableSpace"`
	UsagePercentage int    `json:"usagePercentage"`
	TotalFiles      int    `json:"totalFiles"`
	Warning         bool   `json:"warning"`
}

// FailedFile 批量删除中失败的条目
type FailedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// BatchDeleteResult 批量删除结果
type BatchDeleteResult struct {
	DeletedFiles []string     `json:"deletedFiles"`
	FailedFiles  []FailedFile `json:"failedFiles"`
	TotalDeleted int          `json:"totalDeleted"`
	TotalFailed  int          `json:"totalFailed"`
}

// CleanupStats 可清理内容的扫描结果
type CleanupStats struct {
	TempFiles          int   `json:"tempFiles"`
	TempFilesSize      int64 `json:"tempFilesSize"`
	DuplicateFiles     int   `json:"duplicateFiles"`
	DuplicateFilesSize int64 `json:"duplicateFilesSize"`
	OldFiles           int   `json:"oldFiles"`
	OldFilesSize       int64 `json:"oldFilesSize"`
	EmptyFolders       int   `json:"emptyFolders"`
	EmptyFoldersSize   int64 `json:"emptyFoldersSize"`
}

// CleanupOptions 选择要执行的清理项
type CleanupOptions struct {
	TempFiles      bool `json:"tempFiles"`
	DuplicateFiles bool `json:"duplicateFiles"`
	OldFiles       bool `json:"oldFiles"`
	EmptyFolders   bool `json:"emptyFolders"`
}

// CleanupResult 清理执行结果
type CleanupResult struct {
	TempFilesDeleted      int   `json:"tempFilesDeleted"`
	TempFilesSize         int64 `json:"tempFilesSize"`
	DuplicateFilesDeleted int   `json:"duplicateFilesDeleted"`
	DuplicateFilesSize    int64 `json:"duplicateFilesSize"`
	OldFilesDeleted       int   `json:"oldFilesDeleted"`
	OldFilesSize          int64 `json:"oldFilesSize"`
	EmptyFoldersDeleted   int   `json:"emptyFoldersDeleted"`
}

// Settings 存储管理设置
type Settings struct {
	StoragePath             string `json:"storagePath"`
	AutoCleanup             bool   `json:"autoCleanup"`
	CleanupInterval         string `json:"cleanupInterval"`
	FileRetentionDays       int    `json:"fileRetentionDays"`
	StorageWarningThreshold int    `json:"storageWarningThreshold"`
}

// FileTypeStat 单个类别的数量和总大小
type FileTypeStat struct {
	Type  FileType `json:"type"`
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Size  int64    `json:"size"`
}
