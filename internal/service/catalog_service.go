package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/model"
	"huchenghe/internal/storage"
	"huchenghe/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	saveTimeout     = 5 * time.Minute
	rollbackTimeout = 30 * time.Second
	maxNameToken    = 32
)

// CatalogService 模型上传服务：先保存文件，再写入模型记录
type CatalogService struct {
	repo    model.Repository
	storage storage.Storage
}

// NewCatalogService 创建上传服务实例
func NewCatalogService(repo model.Repository, store storage.Storage) *CatalogService {
	return &CatalogService{
		repo:    repo,
		storage: store,
	}
}

// UploadedFile 一个上传的文件，Name 为客户端提供的原始文件名
type UploadedFile struct {
	Name string
	Data []byte
}

// UploadInput 上传请求：模型文件必填，图片和渲染图可选
type UploadInput struct {
	Fields entity.ModelFields
	Model  *UploadedFile
	Image  *UploadedFile
	Render *UploadedFile
}

// Upload 保存上传文件并创建模型记录。
// 文件路径字段取存储返回的 key；写库失败时删除已保存的文件。
func (s *CatalogService) Upload(ctx context.Context, in UploadInput) (*entity.ModelRecord, error) {
	if strings.TrimSpace(in.Fields.Name) == "" {
		return nil, entity.ValidationError("name", "模型名称不能为空")
	}
	if in.Model == nil || len(in.Model.Data) == 0 {
		return nil, entity.ValidationError("file", "请上传模型文件")
	}
	if s.repo == nil {
		return nil, entity.StorageFailureError("数据库未初始化", fmt.Errorf("repository is nil"))
	}
	if s.storage == nil {
		return nil, entity.StorageFailureError("文件存储未初始化", fmt.Errorf("storage is nil"))
	}

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	fields := in.Fields
	var saved []string

	targets := []struct {
		file     *UploadedFile
		category string
		dest     **string
	}{
		{file: in.Model, category: storage.CategoryModels, dest: &fields.ModelPath},
		{file: in.Image, category: storage.CategoryImages, dest: &fields.ImagePath},
		{file: in.Render, category: storage.CategoryRenders, dest: &fields.RenderPath},
	}
	for _, target := range targets {
		if target.file == nil || len(target.file.Data) == 0 {
			continue
		}
		key, err := s.storage.Save(saveCtx, target.file.Data, storage.SaveOptions{
			Category:  target.category,
			Extension: fileExtension(target.file.Name),
			BaseName:  uploadBaseName(target.file.Name),
		})
		if err != nil {
			s.rollback(saved)
			return nil, entity.StorageFailureError("文件保存失败", err)
		}
		saved = append(saved, key)
		stored := key
		*target.dest = &stored
	}

	record, err := s.repo.CreateModel(ctx, &fields)
	if err != nil {
		s.rollback(saved)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"model_id":   record.ID,
		"model_code": record.ModelCode,
		"files":      len(saved),
	}).Info("model uploaded")
	return record, nil
}

// rollback 删除本次上传已保存的文件，失败只记录日志
func (s *CatalogService) rollback(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to roll back uploaded file")
		}
	}
}

// uploadBaseName 生成 <纳秒时间戳>-<原文件名> 形式的文件名主体
func uploadBaseName(originalName string) string {
	token := storage.SanitizeToken(strings.ReplaceAll(utils.StripExt(originalName), " ", "-"))
	if len(token) > maxNameToken {
		token = token[:maxNameToken]
	}
	prefix := utils.GenerateUUID()
	if token == "" {
		return prefix
	}
	return prefix + "-" + token
}

func fileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
}
