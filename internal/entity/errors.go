package entity

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind 标识仓库层错误的类别，由 HTTP 层映射为状态码。
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindConflict       ErrorKind = "conflict"
	KindSchemaMismatch ErrorKind = "schema_mismatch"
	KindStorageFailure ErrorKind = "storage_failure"
	KindAuthFailure    ErrorKind = "auth_failure"
)

// Error 是带类别的业务错误。Err 保留底层驱动错误用于诊断。
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError 缺少或非法的字段
func ValidationError(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFoundError 记录不存在
func NotFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// ConflictError 唯一约束冲突
func ConflictError(message string, cause error) error {
	return &Error{Kind: KindConflict, Message: message, Err: cause}
}

// SchemaMismatchError 表结构与代码不一致（未知列等）
func SchemaMismatchError(message string, cause error) error {
	return &Error{Kind: KindSchemaMismatch, Message: message, Err: cause}
}

// StorageFailureError 其他数据库或文件系统错误
func StorageFailureError(message string, cause error) error {
	return &Error{Kind: KindStorageFailure, Message: message, Err: errors.WithStack(cause)}
}

// AuthFailureError 登录凭据错误
func AuthFailureError(message string) error {
	return &Error{Kind: KindAuthFailure, Message: message}
}

// KindOf 返回错误链上第一个 *Error 的类别，未分类时返回空字符串。
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Kind
	}
	return ""
}

// FieldOf 返回校验错误关联的字段名。
func FieldOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed != nil {
		return typed.Field
	}
	return ""
}

// MessageOf 返回面向用户的错误信息，不包含底层驱动细节。
func MessageOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed != nil && typed.Message != "" {
		return typed.Message
	}
	return ""
}

// CauseOf 返回底层错误的文本，用于诊断信息。
func CauseOf(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed != nil && typed.Err != nil {
		return errors.Cause(typed.Err).Error()
	}
	return ""
}
