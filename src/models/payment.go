package models

import (
	"time"

	"github.com/gawwe-id/oknum/src/types"
)

// Payment is one attempt to pay for a booking. Its ID doubles as the
// gateway's merchantOrderId. ExpiresAt is set on initiation to the end of the
// gateway's payment window.
type Payment struct {
	ID               string              `gorm:"primarykey;type:varchar(64)" json:"id"`
	BookingID        string              `gorm:"index" json:"bookingId"`
	Amount           int64               `json:"amount"`
	Currency         string              `gorm:"default:'IDR'" json:"currency"`
	PaymentMethod    string              `json:"paymentMethod"`
	Reference        *string             `json:"reference,omitempty"`
	GatewayReference *string             `json:"gatewayReference,omitempty"`
	PaymentURL       *string             `json:"paymentUrl,omitempty"`
	VANumber         *string             `json:"vaNumber,omitempty"`
	QRString         *string             `json:"qrString,omitempty"`
	Status           types.PaymentStatus `gorm:"default:'pending';index" json:"status"`
	StatusMessage    *string             `json:"statusMessage,omitempty"`
	FailureReason    *string             `json:"failureReason,omitempty"`
	PaidAt           *time.Time          `json:"paidAt,omitempty"`
	ExpiresAt        *time.Time          `gorm:"index" json:"expiresAt,omitempty"`
	Metadata         types.JSONB         `gorm:"type:jsonb" json:"metadata,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"booking,omitempty"`

	types.Timestamps
}

// PaymentCallbackLog keeps every gateway callback delivery as received.
type PaymentCallbackLog struct {
	ID             string      `gorm:"primarykey;type:varchar(64)" json:"id"`
	PaymentID      string      `gorm:"index" json:"paymentId"`
	Reference      string      `json:"reference"`
	ResultCode     string      `json:"resultCode"`
	Amount         string      `json:"amount"`
	SignatureValid bool        `json:"signatureValid"`
	Outcome        string      `json:"outcome"`
	Payload        types.JSONB `gorm:"type:jsonb" json:"payload"`
	ReceivedAt     time.Time   `json:"receivedAt"`
}
