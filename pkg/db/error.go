package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// PostgreSQL (error code 23505)
	if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

func IsLockNotAvailableErr(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL (error code 55P03) raised by FOR UPDATE NOWAIT
	if strings.Contains(err.Error(), "could not obtain lock on row") ||
		strings.Contains(err.Error(), "lock not available") {
		return true
	}

	// MySQL (error code 3572)
	if strings.Contains(err.Error(), "Error 3572") {
		return true
	}

	// SQLite rejects a second writer outright
	if strings.Contains(err.Error(), "database is locked") {
		return true
	}

	return false
}
