package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*a = nil
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Role string

const (
	ROLE_STUDENT Role = "student"
	ROLE_EXPERT  Role = "expert"
	ROLE_ADMIN   Role = "admin"
	ROLE_SUPPORT Role = "support"
)

type ClassStatus string

const (
	CLASS_DRAFT     ClassStatus = "draft"
	CLASS_PUBLISHED ClassStatus = "published"
	CLASS_ARCHIVED  ClassStatus = "archived"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

type PaymentStatus string

const (
	PAYMENT_PENDING    PaymentStatus = "pending"
	PAYMENT_PROCESSING PaymentStatus = "processing"
	PAYMENT_SUCCESS    PaymentStatus = "success"
	PAYMENT_FAILED     PaymentStatus = "failed"
	PAYMENT_EXPIRED    PaymentStatus = "expired"
)

// Terminal reports whether no further callback may change the status.
func (s PaymentStatus) Terminal() bool {
	return s == PAYMENT_SUCCESS || s == PAYMENT_FAILED || s == PAYMENT_EXPIRED
}

// TerminalPaymentStatuses lists the statuses a callback must never overwrite.
var TerminalPaymentStatuses = []PaymentStatus{PAYMENT_SUCCESS, PAYMENT_FAILED, PAYMENT_EXPIRED}

type IssueStatus string

const (
	ISSUE_OPEN        IssueStatus = "open"
	ISSUE_IN_PROGRESS IssueStatus = "in_progress"
	ISSUE_RESOLVED    IssueStatus = "resolved"
	ISSUE_CLOSED      IssueStatus = "closed"
)

type ConsultantRequestStatus string

const (
	CONSULTANT_PENDING   ConsultantRequestStatus = "pending"
	CONSULTANT_REVIEWING ConsultantRequestStatus = "reviewing"
	CONSULTANT_ACCEPTED  ConsultantRequestStatus = "accepted"
	CONSULTANT_REJECTED  ConsultantRequestStatus = "rejected"
	CONSULTANT_COMPLETED ConsultantRequestStatus = "completed"
)

type NotificationOutcome string

const (
	NOTIFICATION_SENT              NotificationOutcome = "sent"
	NOTIFICATION_SKIPPED_NO_CONFIG NotificationOutcome = "skipped_no_config"
	NOTIFICATION_FAILED            NotificationOutcome = "failed"
)

type Metadata map[string]any

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type InitiatePaymentRequestBody struct {
	PaymentID     string `json:"paymentId" binding:"required"`
	CustomerName  string `json:"customerName" binding:"required"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
	CustomerPhone string `json:"customerPhone" binding:"required,idphone"`
}

type CreateClassRequestBody struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price" binding:"required,gt=0"`
	Publish     bool   `json:"publish,omitempty"`
}

type CreateScheduleRequestBody struct {
	StartsAt string `json:"startsAt" binding:"required,futuredate"`
	EndsAt   string `json:"endsAt" binding:"required,futuredate,gtdate=StartsAt"`
	Location string `json:"location,omitempty"`
	Capacity uint   `json:"capacity" binding:"required,gt=0"`
}

type CreateBookingRequestBody struct {
	ClassID       string   `json:"classId" binding:"required"`
	ScheduleIDs   []string `json:"scheduleIds" binding:"required,min=1,dive,required"`
	PaymentMethod string   `json:"paymentMethod" binding:"required,max=4"`
	Notes         string   `json:"notes,omitempty"`
}

type CreateIssueRequestBody struct {
	Subject     string  `json:"subject" binding:"required,max=200"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category,omitempty" binding:"omitempty,oneof=payment booking class account other"`
	BookingID   *string `json:"bookingId,omitempty"`
}

type UpdateIssueRequestBody struct {
	Status     IssueStatus `json:"status" binding:"required,oneof=open in_progress resolved closed"`
	Resolution *string     `json:"resolution,omitempty"`
	AssigneeID *string     `json:"assigneeId,omitempty"`
}

type CreateConsultantRequestBody struct {
	Topic             string  `json:"topic" binding:"required,max=200"`
	Description       string  `json:"description" binding:"required"`
	PreferredSchedule *string `json:"preferredSchedule,omitempty"`
	Budget            *int64  `json:"budget,omitempty" binding:"omitempty,gte=0"`
	ContactPhone      string  `json:"contactPhone,omitempty" binding:"omitempty,idphone"`
}

type UpdateConsultantRequestBody struct {
	Status   ConsultantRequestStatus `json:"status" binding:"required,oneof=pending reviewing accepted rejected completed"`
	Response *string                 `json:"response,omitempty"`
}
