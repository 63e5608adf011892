package sql

import (
	"context"
	"errors"
	"strings"

	"huchenghe/internal/auth"
	"huchenghe/internal/entity"

	"github.com/sirupsen/logrus"
)

const invalidCredentialsMessage = "手机号或密码错误"

// Login 按手机号查找用户并校验密码，兼容历史明文密码。
// 开启 UpgradeLegacyPasswords 时，明文密码校验通过后会改写为哈希。
func (r *GormRepository) Login(ctx context.Context, phone, password string) (*entity.DbUser, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, entity.ValidationError("phone", "手机号不能为空")
	}
	if password == "" {
		return nil, entity.ValidationError("password", "密码不能为空")
	}
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}

	user, err := r.GetUserByPhone(ctx, phone)
	if err != nil {
		if entity.KindOf(err) == entity.KindNotFound {
			return nil, entity.AuthFailureError(invalidCredentialsMessage)
		}
		return nil, err
	}

	legacy, err := auth.CheckPassword(user.Password, password)
	if err != nil {
		return nil, entity.AuthFailureError(invalidCredentialsMessage)
	}

	if legacy && r.opts.UpgradeLegacyPasswords {
		if hashed, hashErr := auth.HashPassword(password); hashErr == nil {
			if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("id = ?", user.ID).Update("password", hashed).Error; err != nil {
				logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to upgrade legacy password")
			} else {
				user.Password = hashed
			}
		}
	}
	return user, nil
}

// CreateUser persists a new user record. 未提供密码时使用默认密码。
func (r *GormRepository) CreateUser(ctx context.Context, fields *entity.UserFields) (*entity.DbUser, error) {
	if fields == nil {
		return nil, entity.ValidationError("username", "用户名不能为空")
	}
	normalized := *fields
	normalized.Normalize()
	if err := validateUserFields(&normalized); err != nil {
		return nil, err
	}
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}

	taken, err := r.phoneTaken(ctx, normalized.Phone, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, entity.ConflictError("手机号已存在", nil)
	}

	password := normalized.Password
	if password == "" {
		password = r.opts.DefaultUserPassword
	}
	hashed, err := hashUserPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.DbUser{
		Username: normalized.Username,
		Phone:    normalized.Phone,
		Password: hashed,
		Role:     normalized.Role,
		Email:    normalized.Email,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isConflict(err) {
			return nil, entity.ConflictError("手机号已存在", err)
		}
		return nil, classifyError(err, "failed to create user")
	}
	return user, nil
}

// UpdateUser updates an existing user entry. 密码为空时保持不变。
func (r *GormRepository) UpdateUser(ctx context.Context, id uint, fields *entity.UserFields) (*entity.DbUser, error) {
	if fields == nil {
		return nil, entity.ValidationError("username", "用户名不能为空")
	}
	normalized := *fields
	normalized.Normalize()
	if err := validateUserFields(&normalized); err != nil {
		return nil, err
	}
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}

	if _, err := r.GetUserByID(ctx, id); err != nil {
		return nil, err
	}

	taken, err := r.phoneTaken(ctx, normalized.Phone, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, entity.ConflictError("手机号已被其他用户使用", nil)
	}

	var hashed string
	if normalized.Password != "" {
		if hashed, err = hashUserPassword(normalized.Password); err != nil {
			return nil, err
		}
	}

	if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("id = ?", id).Updates(normalized.ToMap(hashed)).Error; err != nil {
		if isConflict(err) {
			return nil, entity.ConflictError("手机号已被其他用户使用", err)
		}
		return nil, classifyError(err, "failed to update user")
	}
	return r.GetUserByID(ctx, id)
}

// GetUserByPhone loads a user by phone.
func (r *GormRepository) GetUserByPhone(ctx context.Context, phone string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return nil, entity.ValidationError("phone", "手机号不能为空")
	}

	var user entity.DbUser
	if err := r.db.WithContext(ctx).Where("phone = ?", trimmed).First(&user).Error; err != nil {
		return nil, classifyLookup(err, "用户不存在", "failed to load user")
	}
	return &user, nil
}

// GetUserByID loads a user by ID.
func (r *GormRepository) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}
	if id == 0 {
		return nil, entity.NotFoundError("用户不存在")
	}
	var user entity.DbUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, classifyLookup(err, "用户不存在", "failed to load user")
	}
	return &user, nil
}

// ListUsers returns all users ordered by id.
func (r *GormRepository) ListUsers(ctx context.Context) ([]entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, errRepositoryNotInitialised
	}
	var users []entity.DbUser
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, classifyError(err, "failed to list users")
	}
	return users, nil
}

// DeleteUser removes a user by ID.
func (r *GormRepository) DeleteUser(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return errRepositoryNotInitialised
	}
	if id == 0 {
		return entity.NotFoundError("用户不存在")
	}
	result := r.db.WithContext(ctx).Delete(&entity.DbUser{}, id)
	if result.Error != nil {
		return classifyError(result.Error, "failed to delete user")
	}
	if result.RowsAffected == 0 {
		return entity.NotFoundError("用户不存在")
	}
	return nil
}

// CountUsers returns total user count.
func (r *GormRepository) CountUsers(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errRepositoryNotInitialised
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbUser{}).Count(&count).Error; err != nil {
		return 0, classifyError(err, "failed to count users")
	}
	return count, nil
}

func (r *GormRepository) phoneTaken(ctx context.Context, phone string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("phone = ?", phone)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, classifyError(err, "failed to check phone")
	}
	return count > 0, nil
}

// hashUserPassword 把哈希失败转换为带字段的校验错误
func hashUserPassword(password string) (string, error) {
	hashed, err := auth.HashPassword(password)
	switch {
	case err == nil:
		return hashed, nil
	case errors.Is(err, auth.ErrEmptyPassword):
		return "", entity.ValidationError("password", "密码不能为空")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return "", entity.ValidationError("password", "密码长度不能超过 72 字节")
	default:
		return "", entity.ValidationError("password", "密码格式不正确")
	}
}

func validateUserFields(fields *entity.UserFields) error {
	if fields.Username == "" {
		return entity.ValidationError("username", "用户名不能为空")
	}
	if fields.Phone == "" {
		return entity.ValidationError("phone", "手机号不能为空")
	}
	switch fields.Role {
	case "":
		fields.Role = entity.UserRoleUser
	case entity.UserRoleAdmin, entity.UserRoleUser:
	default:
		return entity.ValidationError("role", "角色只能是 admin 或 user")
	}
	return nil
}
