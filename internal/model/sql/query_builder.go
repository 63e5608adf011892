package sql

import (
	"fmt"
	"strconv"
	"strings"

	"huchenghe/internal/entity"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	maxPage     = 1 << 30
	categoryAll = "all"
	modelsTable = "models"
)

// ModelFilter 是列表/计数共用的过滤条件。Clause 只包含占位符，
// 用户输入全部放在 Args 中。
type ModelFilter struct {
	Clause   string
	Args     []interface{}
	Page     int
	PageSize int
	Offset   int
}

// BuildModelFilter 根据查询参数生成过滤条件和分页窗口。
// category 优先于 type，值为空或 "all" 时不过滤；
// page 非法时取 1，pageSize 非法时取 10，并限制在 [1, 100]。
func BuildModelFilter(q entity.ModelQuery) ModelFilter {
	clause := "1=1"
	args := make([]interface{}, 0, 2)

	if name := strings.TrimSpace(q.Name); name != "" {
		clause += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	category := strings.TrimSpace(q.Category)
	if category == "" {
		category = strings.TrimSpace(q.Type)
	}
	if category != "" && category != categoryAll {
		clause += " AND category = ?"
		args = append(args, category)
	}

	page := parsePositive(q.Page, DefaultPage)
	if page > maxPage {
		page = maxPage
	}
	pageSize := parsePositive(q.PageSize, DefaultPageSize)
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return ModelFilter{
		Clause:   clause,
		Args:     args,
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// SelectSQL 生成分页查询语句（不排序，保持数据库自然顺序）。
func (f ModelFilter) SelectSQL() string {
	return fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT %d OFFSET %d", modelsTable, f.Clause, f.PageSize, f.Offset)
}

// CountSQL 生成与 SelectSQL 条件一致的计数语句。
func (f ModelFilter) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) AS total FROM %s WHERE %s", modelsTable, f.Clause)
}

func parsePositive(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	if n < 1 {
		return 1
	}
	return n
}
