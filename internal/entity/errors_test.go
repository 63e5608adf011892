package entity

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
)

func TestErrorHelpersThroughWrapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantKind    ErrorKind
		wantField   string
		wantMessage string
		wantCause   string
	}{
		{
			name:        "校验错误",
			err:         errors.Wrap(ValidationError("name", "模型名称不能为空"), "create model"),
			wantKind:    KindValidation,
			wantField:   "name",
			wantMessage: "模型名称不能为空",
		},
		{
			name:        "冲突带底层错误",
			err:         fmt.Errorf("handler: %w", ConflictError("模型编号已存在", fmt.Errorf("UNIQUE constraint failed"))),
			wantKind:    KindConflict,
			wantMessage: "模型编号已存在",
			wantCause:   "UNIQUE constraint failed",
		},
		{
			name:        "存储错误取最底层原因",
			err:         StorageFailureError("查询模型失败", fmt.Errorf("connection refused")),
			wantKind:    KindStorageFailure,
			wantMessage: "查询模型失败",
			wantCause:   "connection refused",
		},
		{
			name: "未分类错误",
			err:  fmt.Errorf("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.wantKind {
				t.Errorf("KindOf = %q, want %q", got, tt.wantKind)
			}
			if got := FieldOf(tt.err); got != tt.wantField {
				t.Errorf("FieldOf = %q, want %q", got, tt.wantField)
			}
			if got := MessageOf(tt.err); got != tt.wantMessage {
				t.Errorf("MessageOf = %q, want %q", got, tt.wantMessage)
			}
			if got := CauseOf(tt.err); got != tt.wantCause {
				t.Errorf("CauseOf = %q, want %q", got, tt.wantCause)
			}
		})
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := SchemaMismatchError("数据库表结构不匹配", fmt.Errorf("no such column: foo"))
	if got := err.Error(); got != "数据库表结构不匹配: no such column: foo" {
		t.Errorf("unexpected error string %q", got)
	}
	if got := (&Error{Kind: KindNotFound}).Error(); got != string(KindNotFound) {
		t.Errorf("expected kind as fallback message, got %q", got)
	}
}
