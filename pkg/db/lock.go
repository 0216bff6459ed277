package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate applies a NOWAIT row lock on dialects that support it.
// SQLite serializes writers at the connection level, so the clause is
// omitted there rather than producing invalid SQL.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	default:
		return tx
	}
}
