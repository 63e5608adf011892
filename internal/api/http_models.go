package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	uploadTimeout      = 10 * time.Minute
	multipartMemoryMB  = 32
	uploadFieldModel   = "file"
	uploadFieldImage   = "image"
	uploadFieldRender  = "render"
	defaultUploadMaxMB = 512
)

// ListModels GET /models，参数原样交给查询构造器处理
func (h *HTTPHandler) ListModels(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	var query entity.ModelQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "无效的查询参数")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	records, err := h.repo.ListModels(ctx, &query)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	if records == nil {
		records = []entity.ModelRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// CountModels GET /models/count
func (h *HTTPHandler) CountModels(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	var query entity.ModelQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "无效的查询参数")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	total, err := h.repo.CountModels(ctx, &query)
	if err != nil {
		respondError(c, err, "查询失败")
		return
	}
	c.JSON(http.StatusOK, entity.ModelCountResponse{Total: total})
}

func (h *HTTPHandler) GetModel(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的模型 id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	record, err := h.repo.GetModel(ctx, id)
	if err != nil {
		if entity.KindOf(err) == entity.KindNotFound {
			NotFound(c, ErrCodeModelNotFound, entity.MessageOf(err))
			return
		}
		respondError(c, err, "查询失败")
		return
	}
	c.JSON(http.StatusOK, record)
}

// CreateModel POST /models，只写元数据，文件路径由调用方提供
func (h *HTTPHandler) CreateModel(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	var fields entity.ModelFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	record, err := h.repo.CreateModel(ctx, &fields)
	if err != nil {
		respondError(c, err, "创建模型失败")
		return
	}
	c.JSON(http.StatusCreated, record)
}

// UploadModel POST /models/upload，multipart：file 必填，image、render 可选，其余为元数据
func (h *HTTPHandler) UploadModel(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}

	maxMB := h.cfg.UploadMaxMB
	if maxMB <= 0 {
		maxMB = defaultUploadMaxMB
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMB<<20)
	if err := c.Request.ParseMultipartForm(multipartMemoryMB << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "上传文件过大")
			return
		}
		BadRequest(c, ErrCodeInvalidRequest, "无效的上传请求")
		return
	}

	var fields entity.ModelFields
	if err := c.ShouldBind(&fields); err != nil {
		InvalidPayload(c)
		return
	}

	input := service.UploadInput{Fields: fields}
	var err error
	if input.Model, err = readUploadedFile(c, uploadFieldModel); err != nil {
		logrus.WithError(err).Warn("failed to read uploaded model file")
		BadRequest(c, ErrCodeInvalidRequest, "读取模型文件失败")
		return
	}
	if input.Image, err = readUploadedFile(c, uploadFieldImage); err != nil {
		logrus.WithError(err).Warn("failed to read uploaded image")
		BadRequest(c, ErrCodeInvalidRequest, "读取图片失败")
		return
	}
	if input.Render, err = readUploadedFile(c, uploadFieldRender); err != nil {
		logrus.WithError(err).Warn("failed to read uploaded render")
		BadRequest(c, ErrCodeInvalidRequest, "读取渲染图失败")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	record, err := h.catalog.Upload(ctx, input)
	if err != nil {
		respondError(c, err, "上传失败")
		return
	}

	c.JSON(http.StatusCreated, record)
}

// readUploadedFile 字段不存在时返回 nil, nil
func readUploadedFile(c *gin.Context, field string) (*service.UploadedFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", field)
	}
	return &service.UploadedFile{Name: header.Filename, Data: data}, nil
}

// UpdateModel PUT /models/:id，整体替换可编辑字段
func (h *HTTPHandler) UpdateModel(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的模型 id")
		return
	}

	var fields entity.ModelFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.repo.UpdateModel(ctx, id, &fields); err != nil {
		if entity.KindOf(err) == entity.KindNotFound {
			NotFound(c, ErrCodeModelNotFound, entity.MessageOf(err))
			return
		}
		respondError(c, err, "更新失败")
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "模型更新成功"})
}

func (h *HTTPHandler) DeleteModel(c *gin.Context) {
	if !h.repoReady(c) {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		BadRequest(c, ErrCodeInvalidRequest, "无效的模型 id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.repo.DeleteModel(ctx, id); err != nil {
		if entity.KindOf(err) == entity.KindNotFound {
			NotFound(c, ErrCodeModelNotFound, entity.MessageOf(err))
			return
		}
		respondError(c, err, "删除失败")
		return
	}
	c.JSON(http.StatusOK, entity.MessageResponse{Message: "模型删除成功"})
}
