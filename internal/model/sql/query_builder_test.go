package sql

import (
	"strings"
	"testing"

	"huchenghe/internal/entity"
)

func TestBuildModelFilterPagination(t *testing.T) {
	tests := []struct {
		name         string
		query        entity.ModelQuery
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{name: "默认值", query: entity.ModelQuery{}, wantPage: 1, wantPageSize: 10, wantOffset: 0},
		{name: "第三页", query: entity.ModelQuery{Page: "3", PageSize: "20"}, wantPage: 3, wantPageSize: 20, wantOffset: 40},
		{name: "超出上限", query: entity.ModelQuery{PageSize: "200"}, wantPage: 1, wantPageSize: 100, wantOffset: 0},
		{name: "零和负数", query: entity.ModelQuery{Page: "0", PageSize: "-5"}, wantPage: 1, wantPageSize: 1, wantOffset: 0},
		{name: "非数字", query: entity.ModelQuery{Page: "abc", PageSize: "ten"}, wantPage: 1, wantPageSize: 10, wantOffset: 0},
		{name: "带空白", query: entity.ModelQuery{Page: " 2 ", PageSize: " 5 "}, wantPage: 2, wantPageSize: 5, wantOffset: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildModelFilter(tt.query)
			if f.Page != tt.wantPage || f.PageSize != tt.wantPageSize || f.Offset != tt.wantOffset {
				t.Errorf("got page=%d size=%d offset=%d, want %d/%d/%d",
					f.Page, f.PageSize, f.Offset, tt.wantPage, tt.wantPageSize, tt.wantOffset)
			}
		})
	}
}

func TestBuildModelFilterConditions(t *testing.T) {
	tests := []struct {
		name       string
		query      entity.ModelQuery
		wantClause string
		wantArgs   []interface{}
	}{
		{name: "无过滤", query: entity.ModelQuery{}, wantClause: "1=1", wantArgs: nil},
		{name: "名称模糊", query: entity.ModelQuery{Name: "狮"}, wantClause: "1=1 AND name LIKE ?", wantArgs: []interface{}{"%狮%"}},
		{name: "分类", query: entity.ModelQuery{Category: "雕塑"}, wantClause: "1=1 AND category = ?", wantArgs: []interface{}{"雕塑"}},
		{name: "all 不过滤", query: entity.ModelQuery{Category: "all"}, wantClause: "1=1", wantArgs: nil},
		{name: "type 作为别名", query: entity.ModelQuery{Type: "石刻"}, wantClause: "1=1 AND category = ?", wantArgs: []interface{}{"石刻"}},
		{name: "category 优先", query: entity.ModelQuery{Category: "雕塑", Type: "石刻"}, wantClause: "1=1 AND category = ?", wantArgs: []interface{}{"雕塑"}},
		{
			name:       "组合",
			query:      entity.ModelQuery{Name: "a", Category: "b"},
			wantClause: "1=1 AND name LIKE ? AND category = ?",
			wantArgs:   []interface{}{"%a%", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildModelFilter(tt.query)
			if f.Clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", f.Clause, tt.wantClause)
			}
			if len(f.Args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", f.Args, tt.wantArgs)
			}
			for i := range f.Args {
				if f.Args[i] != tt.wantArgs[i] {
					t.Errorf("arg %d = %v, want %v", i, f.Args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestModelFilterSQLKeepsInputOutOfText(t *testing.T) {
	injected := "x' OR '1'='1"
	f := BuildModelFilter(entity.ModelQuery{Name: injected, Category: injected, PageSize: "5", Page: "2"})

	for _, stmt := range []string{f.SelectSQL(), f.CountSQL()} {
		if strings.Contains(stmt, injected) {
			t.Errorf("user input leaked into statement: %s", stmt)
		}
		if strings.Contains(strings.ToUpper(stmt), "ORDER BY") {
			t.Errorf("unexpected ordering in %s", stmt)
		}
	}
	if want := "SELECT * FROM models WHERE 1=1 AND name LIKE ? AND category = ? LIMIT 5 OFFSET 5"; f.SelectSQL() != want {
		t.Errorf("select = %q, want %q", f.SelectSQL(), want)
	}
	if want := "SELECT COUNT(*) AS total FROM models WHERE 1=1 AND name LIKE ? AND category = ?"; f.CountSQL() != want {
		t.Errorf("count = %q, want %q", f.CountSQL(), want)
	}
}
