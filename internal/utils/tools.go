package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const modelCodePrefix = "MODEL_"

var modelCodeClock struct {
	sync.Mutex
	last int64
}

// GenerateModelCode 生成 MODEL_<毫秒时间戳> 形式的模型编号。
// 同一毫秒内多次调用时时间戳顺延，进程内不会重复。
func GenerateModelCode() string {
	modelCodeClock.Lock()
	defer modelCodeClock.Unlock()

	ms := time.Now().UnixMilli()
	if ms <= modelCodeClock.last {
		ms = modelCodeClock.last + 1
	}
	modelCodeClock.last = ms
	return fmt.Sprintf("%s%d", modelCodePrefix, ms)
}

// GenerateUUID 生成基于纳秒时间戳的唯一串，用于上传文件名前缀
func GenerateUUID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// StripExt 去掉文件名的扩展名，返回不含目录的基础名
func StripExt(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
