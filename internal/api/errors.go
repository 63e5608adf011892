package api

import (
	"net/http"
	"strings"

	"huchenghe/internal/entity"
	"huchenghe/internal/filemgr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// 错误码定义
const (
	// 通用错误码 (1xxx)
	ErrCodeInvalidRequest     = "ERR_INVALID_REQUEST"
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeInternalError      = "ERR_INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"

	// 认证错误码 (2xxx)
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "ERR_SESSION_EXPIRED"

	// 资源错误码 (3xxx)
	ErrCodeModelNotFound = "ERR_MODEL_NOT_FOUND"
	ErrCodeUserNotFound  = "ERR_USER_NOT_FOUND"
	ErrCodeFileNotFound  = "ERR_FILE_NOT_FOUND"

	// 业务逻辑错误码 (4xxx)
	ErrCodeMissingField     = "ERR_MISSING_FIELD"
	ErrCodeConflict         = "ERR_CONFLICT"
	ErrCodeCannotDeleteSelf = "ERR_CANNOT_DELETE_SELF"
	ErrCodePathForbidden    = "ERR_PATH_FORBIDDEN"

	// 存储错误码 (5xxx)
	ErrCodeSchemaMismatch = "ERR_SCHEMA_MISMATCH"
	ErrCodeStorageFailure = "ERR_STORAGE_FAILURE"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// 常用错误响应快捷函数

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable 503 服务不可用
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// MissingField 缺少必填字段
func MissingField(c *gin.Context, field string) {
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, field+" is required", gin.H{"field": field})
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// BindingError 把 binding 标签的校验失败转换为带字段的 400，其他解析错误按无效请求体处理
func BindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		InvalidPayload(c)
		return
	}
	fe := verrs[0]
	field := fe.Field()
	if field != "" {
		field = strings.ToLower(field[:1]) + field[1:]
	}
	if fe.Tag() == "required" {
		MissingField(c, field)
		return
	}
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInvalidRequest, field+" is invalid", gin.H{"field": field, "rule": fe.Tag()})
}

// respondError 把仓库层、服务层和文件管理的错误映射为 HTTP 响应。
// fallback 用于错误本身没有面向用户的提示时。
func respondError(c *gin.Context, err error, fallback string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, filemgr.ErrOutsideRoot):
		ErrorResponse(c, http.StatusForbidden, ErrCodePathForbidden, "禁止访问存储目录之外的路径")
		return
	case errors.Is(err, filemgr.ErrEmptyPath):
		MissingField(c, "filePath")
		return
	case errors.Is(err, filemgr.ErrNotFound):
		NotFound(c, ErrCodeFileNotFound, "文件不存在")
		return
	case errors.Is(err, filemgr.ErrNotRegularFile):
		BadRequest(c, ErrCodeInvalidRequest, "目标不是文件")
		return
	case errors.Is(err, filemgr.ErrInvalidSettings):
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
		return
	}

	message := entity.MessageOf(err)
	if message == "" {
		message = fallback
	}

	switch entity.KindOf(err) {
	case entity.KindValidation:
		if field := entity.FieldOf(err); field != "" {
			ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, message, gin.H{"field": field})
			return
		}
		BadRequest(c, ErrCodeInvalidRequest, message)
	case entity.KindNotFound:
		NotFound(c, ErrCodeNotFound, message)
	case entity.KindConflict:
		ErrorResponse(c, http.StatusConflict, ErrCodeConflict, message)
	case entity.KindAuthFailure:
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, message)
	case entity.KindSchemaMismatch:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("schema mismatch")
		ErrorResponseWithDetails(c, http.StatusInternalServerError, ErrCodeSchemaMismatch, message, entity.CauseOf(err))
	case entity.KindStorageFailure:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("storage failure")
		ErrorResponseWithDetails(c, http.StatusInternalServerError, ErrCodeStorageFailure, message, entity.CauseOf(err))
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("unclassified error")
		InternalError(c, message)
	}
}
