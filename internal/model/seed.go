package model

import (
	"context"
	"strings"

	"huchenghe/internal/config"
	"huchenghe/internal/entity"

	"github.com/sirupsen/logrus"
)

// SeedDefaults 写入默认管理员和（可选的）示例模型，已存在时跳过。
func SeedDefaults(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}
	if cfg.SeedDefaultAdmin {
		if err := seedDefaultAdmin(ctx, repo, cfg); err != nil {
			return err
		}
	}
	if cfg.SeedSampleModels {
		if err := seedSampleModels(ctx, repo); err != nil {
			return err
		}
	}
	return nil
}

func seedDefaultAdmin(ctx context.Context, repo Repository, cfg config.Config) error {
	phone := strings.TrimSpace(cfg.DefaultAdminPhone)
	if phone == "" {
		return nil
	}
	_, err := repo.GetUserByPhone(ctx, phone)
	switch entity.KindOf(err) {
	case "":
		if err == nil {
			return nil
		}
		return err
	case entity.KindNotFound:
	default:
		return err
	}

	fields := &entity.UserFields{
		Username: cfg.DefaultAdminUsername,
		Phone:    phone,
		Role:     entity.UserRoleAdmin,
		Password: cfg.DefaultAdminPassword,
	}
	if email := strings.TrimSpace(cfg.DefaultAdminEmail); email != "" {
		fields.Email = &email
	}
	if _, err := repo.CreateUser(ctx, fields); err != nil {
		return err
	}
	logrus.WithField("phone", phone).Info("default admin account created")
	return nil
}

func seedSampleModels(ctx context.Context, repo Repository) error {
	created := 0
	for _, sample := range sampleModels() {
		fields := sample
		_, err := repo.CreateModel(ctx, &fields)
		switch entity.KindOf(err) {
		case "":
			if err != nil {
				return err
			}
			created++
		case entity.KindConflict:
			continue
		default:
			return err
		}
	}
	if created > 0 {
		logrus.WithField("count", created).Info("sample models created")
	}
	return nil
}

func sampleModels() []entity.ModelFields {
	str := func(v string) *string { return &v }
	return []entity.ModelFields{
		{
			ModelCode: "MODEL_001", Name: "示例石刻模型", Category: "石刻", Area: "A区", Address: "一楼展厅", Quantity: 1,
			ImagePath: str("/images/sample1.jpg"), RenderPath: str("/renders/sample1.png"), ModelPath: str("/models/sample1.obj"),
			Remark: str("这是一个示例石刻模型"),
		},
		{
			ModelCode: "MODEL_002", Name: "示例雕塑模型", Category: "雕塑", Area: "B区", Address: "二楼展厅", Quantity: 2,
			ImagePath: str("/images/sample2.jpg"), RenderPath: str("/renders/sample2.png"), ModelPath: str("/models/sample2.fbx"),
			Remark: str("这是一个示例雕塑模型"),
		},
		{
			ModelCode: "MODEL_003", Name: "示例造像模型", Category: "造像", Area: "C区", Address: "三楼展厅", Quantity: 1,
			ImagePath: str("/images/sample3.jpg"), RenderPath: str("/renders/sample3.png"), ModelPath: str("/models/sample3.stl"),
			Remark: str("这是一个示例造像模型"),
		},
	}
}
