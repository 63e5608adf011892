package sql

import (
	"strings"

	"huchenghe/internal/entity"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var errRepositoryNotInitialised = errors.New("repository not initialised")

// duplicate-key messages across mysql, postgres and sqlite
var duplicateMarkers = []string{
	"duplicate entry",
	"duplicate key value",
	"unique constraint failed",
	"violates unique constraint",
}

// unknown-column messages across mysql, postgres and sqlite
var unknownColumnMarkers = []string{
	"unknown column",
	"no such column",
	"has no column named",
}

// classifyError maps a driver/gorm error onto the entity error taxonomy.
// The driver message stays attached as the cause.
func classifyError(err error, message string) error {
	if err == nil {
		return nil
	}
	if entity.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.NotFoundError(message)
	}
	if isConflict(err) {
		return entity.ConflictError(message, err)
	}
	if isUnknownColumn(err) {
		return entity.SchemaMismatchError(message, err)
	}
	return entity.StorageFailureError(message, err)
}

// classifyLookup 区分记录不存在和其他查询失败。
func classifyLookup(err error, notFoundMessage, failureMessage string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.NotFoundError(notFoundMessage)
	}
	return classifyError(err, failureMessage)
}

func isConflict(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err)
}

func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range duplicateMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isUnknownColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range unknownColumnMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	// postgres: column "x" of relation "models" does not exist
	return strings.Contains(msg, "column") && strings.Contains(msg, "does not exist")
}
