package models

import "github.com/gawwe-id/oknum/src/types"

type Issue struct {
	ID          string            `gorm:"primarykey;type:varchar(64)" json:"id"`
	ReporterID  string            `gorm:"index" json:"reporterId"`
	BookingID   *string           `json:"bookingId,omitempty"`
	Subject     string            `json:"subject"`
	Description string            `json:"description"`
	Category    string            `gorm:"default:'other'" json:"category"`
	Status      types.IssueStatus `gorm:"default:'open'" json:"status"`
	Resolution  *string           `json:"resolution,omitempty"`
	AssigneeID  *string           `json:"assigneeId,omitempty"`

	Reporter *User `gorm:"foreignKey:reporter_id" json:"reporter,omitempty"`

	types.Timestamps
}

type ConsultantRequest struct {
	ID                string                        `gorm:"primarykey;type:varchar(64)" json:"id"`
	RequesterID       string                        `gorm:"index" json:"requesterId"`
	Topic             string                        `json:"topic"`
	Description       string                        `json:"description"`
	PreferredSchedule *string                       `json:"preferredSchedule,omitempty"`
	Budget            *int64                        `json:"budget,omitempty"`
	ContactPhone      *string                       `json:"contactPhone,omitempty"`
	Status            types.ConsultantRequestStatus `gorm:"default:'pending'" json:"status"`
	Response          *string                       `json:"response,omitempty"`
	RespondedBy       *string                       `json:"respondedBy,omitempty"`

	Requester *User `gorm:"foreignKey:requester_id" json:"requester,omitempty"`

	types.Timestamps
}
