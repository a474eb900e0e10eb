// Package notify runs the side effects of a successful payment: invoice and
// ticket PDFs, optional archiving, and the confirmation email.
package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/gawwe-id/oknum/src/documents"
	"github.com/gawwe-id/oknum/src/lib"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
)

// Outcome is the inspectable result of one dispatch.
type Outcome struct {
	Kind       types.NotificationOutcome `json:"kind"`
	Reason     string                    `json:"reason,omitempty"`
	InvoiceURL string                    `json:"invoiceUrl,omitempty"`
	TicketURL  string                    `json:"ticketUrl,omitempty"`
}

func (o Outcome) Sent() bool {
	return o.Kind == types.NOTIFICATION_SENT
}

type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

type Dispatcher struct {
	store    Store
	renderer *documents.Renderer
	mailer   lib.Mailer
	uploader Uploader
	appURL   string
}

// NewDispatcher wires the dispatcher. mailer and uploader may be nil.
func NewDispatcher(store Store, renderer *documents.Renderer, mailer lib.Mailer, uploader Uploader, appURL string) *Dispatcher {
	return &Dispatcher{
		store:    store,
		renderer: renderer,
		mailer:   mailer,
		uploader: uploader,
		appURL:   appURL,
	}
}

// PaymentSucceeded never returns an error; every failure is folded into the
// outcome, which is also recorded as a Notification row.
func (d *Dispatcher) PaymentSucceeded(ctx context.Context, paymentID string) Outcome {
	payment, err := d.store.LoadPayment(ctx, paymentID)
	if err != nil {
		return d.finish(ctx, paymentID, "", "", failed("could not load payment: %s", err.Error()))
	}
	booking := payment.Booking
	if payment.Status != types.PAYMENT_SUCCESS {
		return d.finish(ctx, payment.ID, booking.ID, "", failed("payment is %s, not success", payment.Status))
	}
	recipient := ""
	if booking.Student != nil {
		recipient = booking.Student.Email
	}

	invoicePDF, err := d.renderer.Invoice(ctx, InvoiceDocument(payment))
	if err != nil {
		return d.finish(ctx, payment.ID, booking.ID, recipient, failed("invoice rendering failed: %s", err.Error()))
	}
	ticketPDF, err := d.renderer.Ticket(ctx, TicketDocument(booking, d.appURL))
	if err != nil {
		return d.finish(ctx, payment.ID, booking.ID, recipient, failed("ticket rendering failed: %s", err.Error()))
	}

	outcome := Outcome{}
	if d.uploader != nil {
		if url, err := d.uploader.Upload(ctx, fmt.Sprintf("invoices/%s.pdf", payment.ID), "application/pdf", invoicePDF); err != nil {
			log.Printf("[Notify] Invoice upload failed for %s: %s\n", payment.ID, err.Error())
		} else {
			outcome.InvoiceURL = url
		}
		if url, err := d.uploader.Upload(ctx, fmt.Sprintf("tickets/%s.pdf", booking.ID), "application/pdf", ticketPDF); err != nil {
			log.Printf("[Notify] Ticket upload failed for %s: %s\n", booking.ID, err.Error())
		} else {
			outcome.TicketURL = url
		}
	}

	if d.mailer == nil {
		outcome.Kind = types.NOTIFICATION_SKIPPED_NO_CONFIG
		outcome.Reason = "no mailer configured"
		return d.finish(ctx, payment.ID, booking.ID, recipient, outcome)
	}
	if recipient == "" {
		outcome.Kind = types.NOTIFICATION_FAILED
		outcome.Reason = "student has no email address"
		return d.finish(ctx, payment.ID, booking.ID, recipient, outcome)
	}

	err = d.mailer.Send(ctx, &lib.SendMailInput{
		To:      []string{recipient},
		Subject: fmt.Sprintf("Payment received: %s", classTitle(booking)),
		Body:    confirmationBody(payment, booking, d.appURL),
		Html:    true,
		Attachments: []lib.Attachment{
			{Name: fmt.Sprintf("invoice-%s.pdf", payment.ID), ContentType: "application/pdf", Data: invoicePDF},
			{Name: fmt.Sprintf("ticket-%s.pdf", booking.ID), ContentType: "application/pdf", Data: ticketPDF},
		},
	})
	if err != nil {
		outcome.Kind = types.NOTIFICATION_FAILED
		outcome.Reason = fmt.Sprintf("email delivery failed: %s", err.Error())
		return d.finish(ctx, payment.ID, booking.ID, recipient, outcome)
	}
	outcome.Kind = types.NOTIFICATION_SENT
	return d.finish(ctx, payment.ID, booking.ID, recipient, outcome)
}

func (d *Dispatcher) finish(ctx context.Context, paymentID, bookingID, recipient string, o Outcome) Outcome {
	if o.Kind != types.NOTIFICATION_SENT {
		log.Printf("[Notify] Payment %s: %s (%s)\n", paymentID, o.Kind, o.Reason)
	}
	n := &models.Notification{
		ID:         utils.NewID(utils.PREFIX_NOTIFICATION),
		PaymentID:  paymentID,
		BookingID:  bookingID,
		Channel:    "email",
		Recipient:  recipient,
		Outcome:    o.Kind,
		Reason:     utils.StringPtr(o.Reason),
		InvoiceURL: utils.StringPtr(o.InvoiceURL),
		TicketURL:  utils.StringPtr(o.TicketURL),
	}
	if err := d.store.SaveNotification(context.WithoutCancel(ctx), n); err != nil {
		log.Printf("[Notify] Could not record outcome for %s: %s\n", paymentID, err.Error())
	}
	return o
}

func failed(format string, args ...any) Outcome {
	return Outcome{Kind: types.NOTIFICATION_FAILED, Reason: fmt.Sprintf(format, args...)}
}

// InvoiceDocument maps a paid payment and its booking onto an invoice.
func InvoiceDocument(p *models.Payment) documents.Invoice {
	inv := documents.Invoice{
		Number:        "INV-" + strings.TrimPrefix(p.ID, utils.PREFIX_PAYMENT+"_"),
		PaymentID:     p.ID,
		Reference:     utils.Deref(p.Reference),
		PaymentMethod: p.PaymentMethod,
		IssuedAt:      p.CreatedAt,
		PaidAt:        p.PaidAt,
		Amount:        p.Amount,
		Currency:      p.Currency,
	}
	if p.PaidAt != nil {
		inv.IssuedAt = *p.PaidAt
	}
	if b := p.Booking; b != nil {
		inv.BookingID = b.ID
		inv.ClassTitle = classTitle(b)
		inv.Schedules = scheduleLines(b)
		if b.Student != nil {
			inv.StudentName = b.Student.Name
			inv.StudentEmail = b.Student.Email
		}
		if b.Class != nil && b.Class.Expert != nil {
			inv.ExpertName = b.Class.Expert.Name
		}
	}
	return inv
}

// TicketDocument maps a booking onto a ticket whose QR code points at the
// public verification endpoint.
func TicketDocument(b *models.Booking, appURL string) documents.Ticket {
	t := documents.Ticket{
		BookingID:       b.ID,
		ClassTitle:      classTitle(b),
		Schedules:       scheduleLines(b),
		VerificationURL: utils.TicketVerificationURL(appURL, b.ID),
	}
	if b.Student != nil {
		t.StudentName = b.Student.Name
		t.StudentEmail = b.Student.Email
	}
	if b.Class != nil && b.Class.Expert != nil {
		t.ExpertName = b.Class.Expert.Name
	}
	return t
}

func scheduleLines(b *models.Booking) []documents.ScheduleLine {
	lines := make([]documents.ScheduleLine, 0, len(b.Schedules))
	for _, s := range b.Schedules {
		lines = append(lines, documents.ScheduleLine{
			StartsAt: s.StartsAt,
			EndsAt:   s.EndsAt,
			Location: utils.Deref(s.Location),
		})
	}
	return lines
}

func classTitle(b *models.Booking) string {
	if b.Class != nil {
		return b.Class.Title
	}
	return "Class booking " + b.ID
}

func confirmationBody(p *models.Payment, b *models.Booking, appURL string) string {
	name := "there"
	if b.Student != nil && b.Student.Name != "" {
		name = b.Student.Name
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We received your payment of <strong>%s</strong> for <strong>%s</strong>.</p>
<p>Your invoice and ticket are attached. Show the QR code on the ticket when you attend.</p>
<p>Booking: %s<br>Verify ticket: <a href="%s">%s</a></p>`,
		html.EscapeString(name),
		documents.FormatAmount(p.Amount, p.Currency),
		html.EscapeString(classTitle(b)),
		html.EscapeString(b.ID),
		html.EscapeString(utils.TicketVerificationURL(appURL, b.ID)),
		html.EscapeString(utils.TicketVerificationURL(appURL, b.ID)),
	)
}
