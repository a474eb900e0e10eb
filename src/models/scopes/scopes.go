package scopes

import (
	"github.com/gawwe-id/oknum/src/types"
	"gorm.io/gorm"
)

func WithID(id string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithIDs(ids ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN (?)", ids)
	}
}

func WithPendingStatus(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", "pending")
}

// NonTerminalPayment limits a payment query to rows a callback may still change.
func NonTerminalPayment(db *gorm.DB) *gorm.DB {
	return db.Where("status NOT IN ?", types.TerminalPaymentStatuses)
}

// OwnedBy restricts rows to a user unless they are staff.
func OwnedBy(column string, userId string, staff bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if staff {
			return db
		}
		return db.Where(column+" = ?", userId)
	}
}
