package sql

import (
	"strings"

	"gorm.io/gorm"
)

// Options tunes repository behaviour that is driven by configuration.
type Options struct {
	// UpgradeLegacyPasswords rehashes plaintext passwords after a successful login.
	UpgradeLegacyPasswords bool
	// DefaultUserPassword is assigned when a user is created without a password.
	DefaultUserPassword string
}

// GormRepository implements Repository using GORM
type GormRepository struct {
	db   *gorm.DB
	opts Options
}

// NewGormRepository creates a new repository instance
func NewGormRepository(db *gorm.DB, opts Options) *GormRepository {
	if strings.TrimSpace(opts.DefaultUserPassword) == "" {
		opts.DefaultUserPassword = "123456"
	}
	return &GormRepository{db: db, opts: opts}
}
