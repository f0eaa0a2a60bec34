package repository

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound is returned when no record matches the given key.
	ErrRecordNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInsufficientStock is returned when a decrement would make quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// newID returns a time-ordered key so that sorting by id yields insertion order on
// every backend.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrDuplicateKey
	default:
		return err
	}
}

// isUniqueViolation catches drivers that do not implement gorm's error translator.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
