package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"huchenghe/internal/entity"
)

// Canonical column names of the models table.
const (
	ColumnID         = "id"
	ColumnModelCode  = "model_code"
	ColumnName       = "name"
	ColumnCategory   = "category"
	ColumnArea       = "area"
	ColumnAddress    = "address"
	ColumnQuantity   = "quantity"
	ColumnImagePath  = "image_path"
	ColumnRenderPath = "render_path"
	ColumnModelPath  = "model_path"
	ColumnRemark     = "remark"
	ColumnCreateTime = "create_time"
	ColumnUpdateTime = "update_time"
)

// modelFieldAliases lists, per canonical column, every column name the
// field has carried across schema eras. The canonical name is always first.
var modelFieldAliases = map[string][]string{
	ColumnID:         {"id"},
	ColumnModelCode:  {"model_code", "modelCode"},
	ColumnName:       {"name"},
	ColumnCategory:   {"category", "type"},
	ColumnArea:       {"area", "region"},
	ColumnAddress:    {"address"},
	ColumnQuantity:   {"quantity"},
	ColumnImagePath:  {"image_path", "imagePath", "image_url"},
	ColumnRenderPath: {"render_path", "renderPath", "render_url"},
	ColumnModelPath:  {"model_path", "modelPath", "nas_path", "path"},
	ColumnRemark:     {"remark"},
	ColumnCreateTime: {"create_time", "createTime", "created_at", "uploadTime"},
	ColumnUpdateTime: {"update_time", "updateTime", "updated_at"},
}

// LegacyModelAliases returns canonical column -> legacy names (canonical excluded),
// for fields that have at least one legacy name.
func LegacyModelAliases() map[string][]string {
	out := make(map[string][]string, len(modelFieldAliases))
	for canonical, aliases := range modelFieldAliases {
		if len(aliases) < 2 {
			continue
		}
		legacy := make([]string, len(aliases)-1)
		copy(legacy, aliases[1:])
		out[canonical] = legacy
	}
	return out
}

// ModelRecordFromRow maps a raw models row, possibly carrying legacy column
// names, to the canonical record. For each field the first alias present with
// a non-null value wins; absent fields take their default.
func ModelRecordFromRow(row map[string]interface{}) entity.ModelRecord {
	record := entity.ModelRecord{
		Category: entity.DefaultModelCategory,
		Area:     entity.DefaultModelArea,
		Quantity: entity.DefaultModelQuantity,
	}
	if row == nil {
		return record
	}

	if v, ok := lookup(row, ColumnID); ok {
		if id, ok := asInt64(v); ok && id > 0 {
			record.ID = uint(id)
		}
	}
	if v, ok := lookup(row, ColumnModelCode); ok {
		record.ModelCode = asString(v)
	}
	if v, ok := lookup(row, ColumnName); ok {
		record.Name = asString(v)
	}
	if v, ok := lookup(row, ColumnCategory); ok {
		record.Category = asString(v)
	}
	if v, ok := lookup(row, ColumnArea); ok {
		record.Area = asString(v)
	}
	if v, ok := lookup(row, ColumnAddress); ok {
		record.Address = asString(v)
	}
	if v, ok := lookup(row, ColumnQuantity); ok {
		if qty, ok := asInt64(v); ok && qty >= 1 {
			record.Quantity = int(qty)
		}
	}
	if v, ok := lookup(row, ColumnImagePath); ok {
		record.ImagePath = stringPtr(asString(v))
	}
	if v, ok := lookup(row, ColumnRenderPath); ok {
		record.RenderPath = stringPtr(asString(v))
	}
	if v, ok := lookup(row, ColumnModelPath); ok {
		record.ModelPath = stringPtr(asString(v))
	}
	if v, ok := lookup(row, ColumnRemark); ok {
		record.Remark = stringPtr(asString(v))
	}
	if v, ok := lookup(row, ColumnCreateTime); ok {
		record.CreateTime = asTime(v)
	}
	if v, ok := lookup(row, ColumnUpdateTime); ok {
		record.UpdateTime = asTime(v)
	}
	return record
}

// ModelRecordsFromRows maps every row through ModelRecordFromRow.
func ModelRecordsFromRows(rows []map[string]interface{}) []entity.ModelRecord {
	records := make([]entity.ModelRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ModelRecordFromRow(row))
	}
	return records
}

func lookup(row map[string]interface{}, canonical string) (interface{}, bool) {
	for _, alias := range modelFieldAliases[canonical] {
		if v, ok := row[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringPtr(value string) *string {
	return &value
}

func asString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func asInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return 0, false
	}
}

func parseInt(value string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func asTime(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := *v
		return &t
	case []byte:
		return parseTime(string(v))
	case string:
		return parseTime(v)
	default:
		return nil
	}
}

func parseTime(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
