package persistence

import (
	"errors"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"gorm.io/gorm"
)

// storageError passes domain errors through and wraps anything else from the
// database as STORAGE_FAILURE.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.StorageFailure(op, err)
}

// findError maps a lookup error: a missing row becomes NOT_FOUND naming the
// entity, anything else STORAGE_FAILURE.
func findError(entity string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NotFound("%s %v not found", entity, id)
	}
	return storageError("find "+entity, err)
}

// duplicateError maps a unique violation to INVALID_ARGUMENT. It relies on
// gorm.Config.TranslateError.
func duplicateError(op, message string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.InvalidArgument("%s", message)
	}
	return storageError(op, err)
}
