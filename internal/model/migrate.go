package model

import (
	"fmt"
	"sort"
	"time"

	"huchenghe/internal/entity"
	"huchenghe/internal/entity/converter"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// legacyColumnsVersion 把历史列名的数据合并到规范列
const legacyColumnsVersion = 1

// DbSchemaMigration 记录已执行的数据迁移版本
type DbSchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false" json:"version"`
	AppliedAt time.Time `gorm:"column:applied_at" json:"applied_at"`
}

// TableName 指定表名。
func (DbSchemaMigration) TableName() string {
	return "schema_migration"
}

// MigrateSchema 建表并执行一次性的历史列合并。历史列本身保留不删。
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.DbModelRecord{},
		&entity.DbUser{},
		&DbSchemaMigration{},
	); err != nil {
		return err
	}

	var applied int64
	if err := db.Model(&DbSchemaMigration{}).Where("version = ?", legacyColumnsVersion).Count(&applied).Error; err != nil {
		return err
	}
	if applied > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := mergeLegacyModelColumns(tx); err != nil {
			return err
		}
		if err := backfillModelDefaults(tx); err != nil {
			return err
		}
		logrus.WithField("version", legacyColumnsVersion).Info("schema migration applied")
		return tx.Create(&DbSchemaMigration{Version: legacyColumnsVersion, AppliedAt: time.Now()}).Error
	})
}

// mergeLegacyModelColumns 规范列为空时，按别名顺序从历史列复制数据。
func mergeLegacyModelColumns(tx *gorm.DB) error {
	columnTypes, err := tx.Migrator().ColumnTypes(&entity.DbModelRecord{})
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(columnTypes))
	for _, ct := range columnTypes {
		existing[ct.Name()] = struct{}{}
	}

	aliases := converter.LegacyModelAliases()
	canonicals := make([]string, 0, len(aliases))
	for canonical := range aliases {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		if _, ok := existing[canonical]; !ok {
			continue
		}
		for _, legacy := range aliases[canonical] {
			if _, ok := existing[legacy]; !ok {
				continue
			}
			result := tx.Exec("UPDATE models SET ? = ? WHERE ? IS NULL AND ? IS NOT NULL",
				clause.Column{Name: canonical}, clause.Column{Name: legacy},
				clause.Column{Name: canonical}, clause.Column{Name: legacy})
			if result.Error != nil {
				return fmt.Errorf("copy %s into %s: %w", legacy, canonical, result.Error)
			}
			if result.RowsAffected > 0 {
				logrus.WithFields(logrus.Fields{
					"from": legacy,
					"to":   canonical,
					"rows": result.RowsAffected,
				}).Info("legacy column merged")
			}
		}
	}
	return nil
}

func backfillModelDefaults(tx *gorm.DB) error {
	var ids []uint
	if err := tx.Model(&entity.DbModelRecord{}).
		Where("model_code IS NULL OR model_code = ?", "").
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		code := fmt.Sprintf("MIGRATED_%d", id)
		if err := tx.Model(&entity.DbModelRecord{}).Where("id = ?", id).Update("model_code", code).Error; err != nil {
			return fmt.Errorf("backfill model_code for %d: %w", id, err)
		}
	}

	defaults := []struct {
		column string
		where  string
		value  interface{}
	}{
		{column: "category", where: "category IS NULL OR category = ''", value: entity.DefaultModelCategory},
		{column: "area", where: "area IS NULL OR area = ''", value: entity.DefaultModelArea},
		{column: "address", where: "address IS NULL", value: ""},
		{column: "quantity", where: "quantity IS NULL OR quantity < 1", value: entity.DefaultModelQuantity},
	}
	for _, d := range defaults {
		if err := tx.Model(&entity.DbModelRecord{}).Where(d.where).Update(d.column, d.value).Error; err != nil {
			return fmt.Errorf("backfill %s: %w", d.column, err)
		}
	}
	return nil
}
