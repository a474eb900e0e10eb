package models

import "github.com/gawwe-id/oknum/src/types"

type Booking struct {
	ID          string              `gorm:"primarykey;type:varchar(64)" json:"id"`
	StudentID   string              `gorm:"index" json:"studentId"`
	ClassID     string              `gorm:"index" json:"classId"`
	TotalAmount int64               `json:"totalAmount"`
	Currency    string              `gorm:"default:'IDR'" json:"currency"`
	Status      types.BookingStatus `gorm:"default:'pending'" json:"status"`
	Notes       *string             `json:"notes,omitempty"`

	Student   *User       `gorm:"foreignKey:student_id" json:"student,omitempty"`
	Class     *Class      `gorm:"foreignKey:class_id" json:"class,omitempty"`
	Schedules []*Schedule `gorm:"many2many:booking_schedules;" json:"schedules,omitempty"`
	Payments  []Payment   `gorm:"foreignKey:booking_id" json:"payments,omitempty"`

	types.Timestamps
}

func (b Booking) Ticketed() bool {
	return b.Status == types.BOOKING_CONFIRMED || b.Status == types.BOOKING_COMPLETED
}
