package sql

import (
	"context"
	"strings"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/entity/converter"
	"huchenghe/internal/utils"

	"github.com/sirupsen/logrus"
)

const generatedCodeAttempts = 3

// ListModels 按过滤条件分页返回模型，每行经字段映射转成规范结构。
func (r *GormRepository) ListModels(ctx context.Context, params *entity.ModelQuery) ([]entity.ModelRecord, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}
	var query entity.ModelQuery
	if params != nil {
		query = *params
	}
	filter := BuildModelFilter(query)

	var rows []map[string]interface{}
	if err := r.db.WithContext(ctx).Raw(filter.SelectSQL(), filter.Args...).Scan(&rows).Error; err != nil {
		return nil, classifyError(err, "failed to list models")
	}
	return converter.ModelRecordsFromRows(rows), nil
}

// CountModels 返回与 ListModels 相同过滤条件下的总数，忽略分页。
func (r *GormRepository) CountModels(ctx context.Context, params *entity.ModelQuery) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errRepositoryNotInitialised
	}
	var query entity.ModelQuery
	if params != nil {
		query = *params
	}
	filter := BuildModelFilter(query)

	var total int64
	if err := r.db.WithContext(ctx).Raw(filter.CountSQL(), filter.Args...).Scan(&total).Error; err != nil {
		return 0, classifyError(err, "failed to count models")
	}
	return total, nil
}

// GetModel loads a single model by id.
func (r *GormRepository) GetModel(ctx context.Context, id uint) (*entity.ModelRecord, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}
	if id == 0 {
		return nil, entity.NotFoundError("模型不存在")
	}

	var rows []map[string]interface{}
	if err := r.db.WithContext(ctx).Table(modelsTable).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, classifyError(err, "failed to load model")
	}
	if len(rows) == 0 {
		return nil, entity.NotFoundError("模型不存在")
	}
	record := converter.ModelRecordFromRow(rows[0])
	return &record, nil
}

// CreateModel 插入一条模型记录，未提供编号时自动生成。
// 调用方指定的编号重复时返回 Conflict，不会留下部分写入的数据。
func (r *GormRepository) CreateModel(ctx context.Context, fields *entity.ModelFields) (*entity.ModelRecord, error) {
	if fields == nil || strings.TrimSpace(fields.Name) == "" {
		return nil, entity.ValidationError("name", "模型名称不能为空")
	}
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}

	normalized := *fields
	normalized.Normalize()
	if normalized.ModelCode != "" {
		return r.insertModel(ctx, &normalized)
	}

	// 自动编号与其他进程撞号时换一个编号重试，调用方不会看到 Conflict
	var err error
	for attempt := 0; attempt < generatedCodeAttempts; attempt++ {
		normalized.ModelCode = utils.GenerateModelCode()
		var record *entity.ModelRecord
		record, err = r.insertModel(ctx, &normalized)
		if entity.KindOf(err) != entity.KindConflict {
			return record, err
		}
		logrus.WithField("model_code", normalized.ModelCode).Warn("generated model code taken, retrying")
	}
	return nil, err
}

func (r *GormRepository) insertModel(ctx context.Context, normalized *entity.ModelFields) (*entity.ModelRecord, error) {
	now := time.Now()
	row := &entity.DbModelRecord{
		ModelCode:  normalized.ModelCode,
		Name:       normalized.Name,
		Category:   normalized.Category,
		Area:       normalized.Area,
		Address:    normalized.Address,
		Quantity:   normalized.Quantity,
		ImagePath:  normalized.ImagePath,
		RenderPath: normalized.RenderPath,
		ModelPath:  normalized.ModelPath,
		Remark:     normalized.Remark,
		CreateTime: &now,
		UpdateTime: &now,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if isConflict(err) {
			return nil, entity.ConflictError("模型编号已存在", err)
		}
		return nil, classifyError(err, "failed to create model")
	}
	return r.GetModel(ctx, row.ID)
}

// UpdateModel 覆盖全部可编辑字段并刷新 update_time，model_code 不变。
func (r *GormRepository) UpdateModel(ctx context.Context, id uint, fields *entity.ModelFields) error {
	if fields == nil || strings.TrimSpace(fields.Name) == "" {
		return entity.ValidationError("name", "模型名称不能为空")
	}
	if r == nil || r.db == nil {
		return errRepositoryNotInitialised
	}

	normalized := *fields
	normalized.Normalize()

	// 先确认存在：MySQL 对未变化的行返回 RowsAffected=0
	var count int64
	if err := r.db.WithContext(ctx).Table(modelsTable).Where("id = ?", id).Count(&count).Error; err != nil {
		return classifyError(err, "failed to load model")
	}
	if count == 0 {
		return entity.NotFoundError("模型不存在")
	}

	if err := r.db.WithContext(ctx).Table(modelsTable).Where("id = ?", id).Updates(normalized.ToMap(time.Now())).Error; err != nil {
		return classifyError(err, "failed to update model")
	}
	return nil
}

// DeleteModel removes a model by id.
func (r *GormRepository) DeleteModel(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return errRepositoryNotInitialised
	}
	if id == 0 {
		return entity.NotFoundError("模型不存在")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbModelRecord{}, id)
	if result.Error != nil {
		return classifyError(result.Error, "failed to delete model")
	}
	if result.RowsAffected == 0 {
		return entity.NotFoundError("模型不存在")
	}
	return nil
}
