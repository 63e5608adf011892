package entity

import (
	"strings"
	"time"
)

// Normalize 去除首尾空白并补齐默认值，创建和更新前调用。
func (f *ModelFields) Normalize() {
	if f == nil {
		return
	}
	f.ModelCode = strings.TrimSpace(f.ModelCode)
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" {
		f.Category = DefaultModelCategory
	}
	f.Area = strings.TrimSpace(f.Area)
	if f.Area == "" {
		f.Area = DefaultModelArea
	}
	f.Address = strings.TrimSpace(f.Address)
	if f.Quantity < 1 {
		f.Quantity = DefaultModelQuantity
	}
	f.ImagePath = trimOptional(f.ImagePath)
	f.RenderPath = trimOptional(f.RenderPath)
	f.ModelPath = trimOptional(f.ModelPath)
	f.Remark = trimOptional(f.Remark)
}

// ToMap 转换为 GORM 更新 map，覆盖全部可编辑字段（model_code 不可修改）。
func (f ModelFields) ToMap(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"name":        f.Name,
		"category":    f.Category,
		"area":        f.Area,
		"address":     f.Address,
		"quantity":    f.Quantity,
		"image_path":  f.ImagePath,
		"render_path": f.RenderPath,
		"model_path":  f.ModelPath,
		"remark":      f.Remark,
		"update_time": now,
	}
}

// Normalize 去除首尾空白，角色小写。
func (f *UserFields) Normalize() {
	if f == nil {
		return
	}
	f.Username = strings.TrimSpace(f.Username)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Role = strings.ToLower(strings.TrimSpace(f.Role))
	f.Email = trimOptional(f.Email)
}

// ToMap 转换为 GORM 更新 map。passwordHash 为空时不修改密码。
func (f UserFields) ToMap(passwordHash string) map[string]interface{} {
	updates := map[string]interface{}{
		"username": f.Username,
		"phone":    f.Phone,
		"role":     f.Role,
		"email":    f.Email,
	}
	if passwordHash != "" {
		updates["password"] = passwordHash
	}
	return updates
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
