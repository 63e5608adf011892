package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// sanitizePathSegment 仅保留小写字母、数字、"-" 和 "_"。
func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return "bin"
	}
	return sanitizePathSegment(trimmed)
}

// buildObjectPath 生成 <category>/<yyyy>/<mm>/<dd>/<base>.<ext> 形式的对象键。
func buildObjectPath(category, baseName, ext string) string {
	return buildObjectPathAt(time.Now().UTC(), category, baseName, ext)
}

func buildObjectPathAt(now time.Time, category, baseName, ext string) string {
	category = sanitizePathSegment(category)
	if category == "" {
		category = "misc"
	}
	normalizedExt := normalizeExtension(ext)
	base := sanitizeFileBase(baseName)
	if base == "" {
		base = fmt.Sprintf("%d", now.UnixNano())
	}
	datedir := fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day())
	filename := fmt.Sprintf("%s.%s", base, normalizedExt)
	return path.Join(category, datedir, filename)
}

// prepareSave 校验载荷和上下文，返回加上前缀后的对象键。各后端的 Save 共用。
func prepareSave(ctx context.Context, data []byte, opts SaveOptions, prefix string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	return joinPrefix(prefix, buildObjectPath(opts.Category, opts.BaseName, opts.Extension)), nil
}

func detectContentType(ext string) string {
	normalized := normalizeExtension(ext)
	typeName := mime.TypeByExtension("." + normalized)
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func sanitizeFileBase(value string) string {
	replaced := strings.ReplaceAll(strings.TrimSpace(value), " ", "-")
	sanitized := sanitizePathSegment(replaced)
	return strings.Trim(sanitized, "-_")
}

// cleanObjectKey 规范化调用方传入的 key，拒绝空值和 ".." 段。
func cleanObjectKey(key string) (string, error) {
	trimmed := strings.Trim(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"), "/")
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(trimmed), nil
}

// SanitizeToken lowercases the provided token and keeps alphanumeric, dash, and underscore characters only.
func SanitizeToken(value string) string {
	return sanitizePathSegment(value)
}
