package models

import (
	"github.com/gawwe-id/oknum/src/types"
)

// User mirrors an identity-provider account. ID is the provider's user id.
type User struct {
	ID        string       `gorm:"primarykey;type:varchar(64)" json:"id"`
	Name      string       `json:"name,omitempty"`
	Email     string       `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone     *string      `json:"phone,omitempty"`
	AvatarURL *string      `json:"avatarUrl,omitempty"`
	Role      types.Role   `gorm:"default:'student'" json:"role,omitempty"`
	Metadata  *types.JSONB `gorm:"type:jsonb" json:"-"`

	Bookings []Booking `gorm:"foreignKey:student_id" json:"bookings,omitempty"`

	types.Timestamps
}

func (u User) IsStaff() bool {
	return u.Role == types.ROLE_ADMIN || u.Role == types.ROLE_SUPPORT
}
