package models

import (
	"time"

	"github.com/gawwe-id/oknum/src/types"
)

type Class struct {
	ID          string            `gorm:"primarykey;type:varchar(64)" json:"id"`
	Title       string            `json:"title"`
	Slug        string            `gorm:"uniqueIndex" json:"slug"`
	Description *string           `json:"description,omitempty"`
	ExpertID    string            `gorm:"index" json:"expertId"`
	Price       int64             `json:"price"`
	Currency    string            `gorm:"default:'IDR'" json:"currency"`
	Status      types.ClassStatus `gorm:"default:'draft'" json:"status"`

	Expert    *User      `gorm:"foreignKey:expert_id" json:"expert,omitempty"`
	Schedules []Schedule `gorm:"foreignKey:class_id" json:"schedules,omitempty"`

	types.Timestamps
}

// Schedule is one bookable session of a class.
type Schedule struct {
	ID          string    `gorm:"primarykey;type:varchar(64)" json:"id"`
	ClassID     string    `gorm:"index" json:"classId"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Location    *string   `json:"location,omitempty"`
	Capacity    uint      `json:"capacity"`
	BookedSeats uint      `gorm:"default:0" json:"bookedSeats"`

	Class *Class `gorm:"foreignKey:class_id" json:"class,omitempty"`

	types.Timestamps
}

func (s Schedule) SeatsLeft() uint {
	if s.BookedSeats >= s.Capacity {
		return 0
	}
	return s.Capacity - s.BookedSeats
}
