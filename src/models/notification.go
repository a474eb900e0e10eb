package models

import (
	"github.com/gawwe-id/oknum/src/types"
)

// Notification records what happened when post-payment documents were sent.
type Notification struct {
	ID         string                    `gorm:"primarykey;type:varchar(64)" json:"id"`
	PaymentID  string                    `gorm:"index" json:"paymentId"`
	BookingID  string                    `gorm:"index" json:"bookingId"`
	Channel    string                    `gorm:"default:'email'" json:"channel"`
	Recipient  string                    `json:"recipient,omitempty"`
	Outcome    types.NotificationOutcome `json:"outcome"`
	Reason     *string                   `json:"reason,omitempty"`
	InvoiceURL *string                   `json:"invoiceUrl,omitempty"`
	TicketURL  *string                   `json:"ticketUrl,omitempty"`

	types.Timestamps
}
