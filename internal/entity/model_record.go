package entity

import "time"

const (
	DefaultModelCategory = "其他"
	DefaultModelArea     = "未指定"
	DefaultModelQuantity = 1

	ModelCodePrefix = "MODEL_"
)

// DbModelRecord 是 models 表的规范结构，仅用于建表迁移和写入。
// 读取统一走原始行 + 字段映射，以兼容历史列名。
type DbModelRecord struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	ModelCode  string     `gorm:"column:model_code;type:varchar(100);uniqueIndex" json:"model_code"`
	Name       string     `gorm:"column:name;type:varchar(255);index;not null" json:"name"`
	Category   string     `gorm:"column:category;type:varchar(100);index" json:"category"`
	Area       string     `gorm:"column:area;type:varchar(100);index" json:"area"`
	Address    string     `gorm:"column:address;type:varchar(255)" json:"address"`
	Quantity   int        `gorm:"column:quantity" json:"quantity"`
	ImagePath  *string    `gorm:"column:image_path;type:varchar(500)" json:"image_path"`
	RenderPath *string    `gorm:"column:render_path;type:varchar(500)" json:"render_path"`
	ModelPath  *string    `gorm:"column:model_path;type:varchar(500)" json:"model_path"`
	Remark     *string    `gorm:"column:remark;type:text" json:"remark"`
	CreateTime *time.Time `gorm:"column:create_time;index" json:"create_time"`
	UpdateTime *time.Time `gorm:"column:update_time" json:"update_time"`
}

// TableName 指定表名。
func (DbModelRecord) TableName() string {
	return "models"
}

// ModelRecord 是对外暴露的规范化模型记录，只包含规范字段名。
type ModelRecord struct {
	ID         uint       `json:"id"`
	ModelCode  string     `json:"model_code"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Area       string     `json:"area"`
	Address    string     `json:"address"`
	Quantity   int        `json:"quantity"`
	ImagePath  *string    `json:"image_path"`
	RenderPath *string    `json:"render_path"`
	ModelPath  *string    `json:"model_path"`
	Remark     *string    `json:"remark"`
	CreateTime *time.Time `json:"create_time"`
	UpdateTime *time.Time `json:"update_time"`
}

// ModelQuery 列表与计数的原始查询参数。分页参数保持字符串，
// 由查询构造器统一做数值转换和范围校验。
type ModelQuery struct {
	Name     string `json:"name" form:"name"`
	Category string `json:"category" form:"category"`
	Type     string `json:"type" form:"type"`
	Page     string `json:"page" form:"page"`
	PageSize string `json:"pageSize" form:"pageSize"`
}

// ModelFields 是创建/更新时可编辑的字段集合。
type ModelFields struct {
	ModelCode  string  `json:"model_code" form:"model_code"`
	Name       string  `json:"name" form:"name"`
	Category   string  `json:"category" form:"category"`
	Area       string  `json:"area" form:"area"`
	Address    string  `json:"address" form:"address"`
	Quantity   int     `json:"quantity" form:"quantity"`
	ImagePath  *string `json:"image_path" form:"image_path"`
	RenderPath *string `json:"render_path" form:"render_path"`
	ModelPath  *string `json:"model_path" form:"model_path"`
	Remark     *string `json:"remark" form:"remark"`
}

// ModelCountResponse GET /models/count 的响应
type ModelCountResponse struct {
	Total int64 `json:"total"`
}

// MessageResponse 只携带提示信息的响应
type MessageResponse struct {
	Message string `json:"message"`
}
