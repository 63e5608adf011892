package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultBcryptCost = bcrypt.DefaultCost
	// bcrypt 只接受 72 字节以内的输入
	maxPasswordBytes = 72
)

// bcrypt 哈希的前缀标记，用来区分历史明文密码
var bcryptMarkers = []string{"$2a$", "$2b$", "$2y$"}

var (
	// ErrPasswordMismatch 密码不匹配
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrEmptyPassword 密码为空或全为空白
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong 密码超过 bcrypt 的长度上限
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// HashPassword 对明文密码进行哈希处理
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), defaultBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword 验证密码是否与存储的哈希值匹配
func VerifyPassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}

// IsHashed 判断存储值是否为 bcrypt 哈希
func IsHashed(stored string) bool {
	for _, marker := range bcryptMarkers {
		if strings.HasPrefix(stored, marker) {
			return true
		}
	}
	return false
}

// CheckPassword 兼容历史数据：带 bcrypt 标记时走哈希比较，否则按明文比较。
// 返回值 legacy 表示命中的是明文记录，调用方可据此升级为哈希。
func CheckPassword(stored, candidate string) (legacy bool, err error) {
	if stored == "" || candidate == "" {
		return false, ErrPasswordMismatch
	}
	if IsHashed(stored) {
		if err := VerifyPassword(stored, candidate); err != nil {
			return false, ErrPasswordMismatch
		}
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return true, ErrPasswordMismatch
	}
	return true, nil
}
