package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateIn is a GORM scope restricting rows to the given state column values.
//
// Example usage:
//
//	db.Model(&models.CoinPaymentModel{}).Scopes(db.StateIn("pending", "paid_in_full")).Find(&rows)
func StateIn(states ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("state IN ?", states)
	}
}

// OrderByID orders rows by primary key so batches are processed oldest first.
func OrderByID() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}
}

// LockForUpdate adds SELECT ... FOR UPDATE. The sqlite dialect drops the clause.
func LockForUpdate() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
}
