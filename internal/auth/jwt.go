package auth

import (
	"strconv"
	"strings"
	"time"

	"huchenghe/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	defaultTokenExpiry = 24 * time.Hour
	defaultIssuer      = "huchenghe"
	clockLeeway        = 30 * time.Second
)

var (
	// ErrMissingToken 请求未携带 Bearer Token
	ErrMissingToken = errors.New("missing bearer token")
	// ErrMalformedHeader Authorization 头不是 "Bearer <token>" 格式
	ErrMalformedHeader = errors.New("malformed authorization header")
)

// Claims 登录 Token 中携带的用户信息，Phone 为登录账号
type Claims struct {
	UserID   uint   `json:"uid"`
	Phone    string `json:"phone"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin 判断 Token 是否属于管理员
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == entity.UserRoleAdmin
}

// Manager 负责签发和校验登录 Token
type Manager struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewManager 创建 Token 管理器，secret 不能为空
func NewManager(secret, issuer string, expiry time.Duration) (*Manager, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &Manager{
		secret: []byte(trimmed),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// GenerateToken 为登录成功的用户签发 Token，返回 Token 和过期时间
func (m *Manager) GenerateToken(user *entity.DbUser) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("jwt manager is nil")
	}
	if user == nil || user.ID == 0 {
		return "", time.Time{}, errors.New("cannot issue token for unsaved user")
	}
	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.expiry)

	claims := Claims{
		UserID:   user.ID,
		Phone:    user.Phone,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, expiresAt, nil
}

// ParseToken 校验签名、签发方和有效期
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	if m == nil {
		return nil, errors.New("jwt manager is nil")
	}
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// BearerToken 从 Authorization 头中取出 Token
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedHeader
	}
	return strings.TrimSpace(token), nil
}
