package model

import (
	"context"

	"huchenghe/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 模型管理
	ListModels(ctx context.Context, params *entity.ModelQuery) ([]entity.ModelRecord, error)
	CountModels(ctx context.Context, params *entity.ModelQuery) (int64, error)
	GetModel(ctx context.Context, id uint) (*entity.ModelRecord, error)
	CreateModel(ctx context.Context, fields *entity.ModelFields) (*entity.ModelRecord, error)
	UpdateModel(ctx context.Context, id uint, fields *entity.ModelFields) error
	DeleteModel(ctx context.Context, id uint) error

	// 用户管理
	Login(ctx context.Context, phone, password string) (*entity.DbUser, error)
	CreateUser(ctx context.Context, fields *entity.UserFields) (*entity.DbUser, error)
	UpdateUser(ctx context.Context, id uint, fields *entity.UserFields) (*entity.DbUser, error)
	GetUserByPhone(ctx context.Context, phone string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context) ([]entity.DbUser, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)
}
