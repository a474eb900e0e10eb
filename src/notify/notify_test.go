package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gawwe-id/oknum/src/documents"
	"github.com/gawwe-id/oknum/src/lib"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu            sync.Mutex
	payment       *models.Payment
	loadErr       error
	notifications []*models.Notification
}

func (s *fakeStore) LoadPayment(ctx context.Context, id string) (*models.Payment, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.payment, nil
}

func (s *fakeStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

type fakeMailer struct {
	err  error
	sent []*lib.SendMailInput
}

func (m *fakeMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, input)
	return nil
}

type fakeUploader struct {
	keys []string
	err  error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return "https://bucket.example.com/" + key, nil
}

func paidPayment() *models.Payment {
	paidAt := time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC)
	ref := "DS1234567"
	loc := "Zoom"
	start := time.Date(2026, 11, 2, 2, 0, 0, 0, time.UTC)
	return &models.Payment{
		ID:            "pay_123",
		BookingID:     "bk_1",
		Amount:        150000,
		Currency:      "IDR",
		PaymentMethod: "BC",
		Reference:     &ref,
		Status:        types.PAYMENT_SUCCESS,
		PaidAt:        &paidAt,
		Booking: &models.Booking{
			ID:        "bk_1",
			StudentID: "user_1",
			Status:    types.BOOKING_CONFIRMED,
			Student:   &models.User{ID: "user_1", Name: "Siti", Email: "siti@example.com"},
			Class: &models.Class{
				ID:     "cls_1",
				Title:  "Go for Backend Engineers",
				Expert: &models.User{ID: "user_2", Name: "Andi"},
			},
			Schedules: []*models.Schedule{
				{ID: "sch_1", StartsAt: start, EndsAt: start.Add(2 * time.Hour), Location: &loc},
			},
		},
	}
}

func TestPaymentSucceededSent(t *testing.T) {
	store := &fakeStore{payment: paidPayment()}
	mailer := &fakeMailer{}
	uploader := &fakeUploader{}
	d := NewDispatcher(store, documents.NewRenderer(), mailer, uploader, "https://app.example.com")

	outcome := d.PaymentSucceeded(context.Background(), "pay_123")

	assert.Equal(t, types.NOTIFICATION_SENT, outcome.Kind)
	assert.True(t, outcome.Sent())
	assert.Equal(t, "https://bucket.example.com/invoices/pay_123.pdf", outcome.InvoiceURL)
	assert.Equal(t, "https://bucket.example.com/tickets/bk_1.pdf", outcome.TicketURL)
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"siti@example.com"}, msg.To)
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "invoice-pay_123.pdf", msg.Attachments[0].Name)
	assert.Equal(t, "ticket-bk_1.pdf", msg.Attachments[1].Name)
	assert.Contains(t, msg.Body, "Rp 150.000")
	assert.Contains(t, msg.Body, "https://app.example.com/verify-ticket/bk_1")
	require.Len(t, store.notifications, 1)
	assert.Equal(t, types.NOTIFICATION_SENT, store.notifications[0].Outcome)
}

func TestPaymentSucceededSkippedWithoutMailer(t *testing.T) {
	store := &fakeStore{payment: paidPayment()}
	d := NewDispatcher(store, documents.NewRenderer(), nil, nil, "https://app.example.com")

	outcome := d.PaymentSucceeded(context.Background(), "pay_123")

	assert.Equal(t, types.NOTIFICATION_SKIPPED_NO_CONFIG, outcome.Kind)
	assert.Empty(t, outcome.InvoiceURL)
	require.Len(t, store.notifications, 1)
	assert.Equal(t, types.NOTIFICATION_SKIPPED_NO_CONFIG, store.notifications[0].Outcome)
}

func TestPaymentSucceededSendFailure(t *testing.T) {
	store := &fakeStore{payment: paidPayment()}
	mailer := &fakeMailer{err: errors.New("535 authentication failed")}
	uploader := &fakeUploader{err: errors.New("access denied")}
	d := NewDispatcher(store, documents.NewRenderer(), mailer, uploader, "https://app.example.com")

	outcome := d.PaymentSucceeded(context.Background(), "pay_123")

	assert.Equal(t, types.NOTIFICATION_FAILED, outcome.Kind)
	assert.Contains(t, outcome.Reason, "535 authentication failed")
	assert.Empty(t, outcome.InvoiceURL)
}

func TestPaymentSucceededNotPaid(t *testing.T) {
	p := paidPayment()
	p.Status = types.PAYMENT_PROCESSING
	mailer := &fakeMailer{}
	d := NewDispatcher(&fakeStore{payment: p}, documents.NewRenderer(), mailer, nil, "https://app.example.com")

	outcome := d.PaymentSucceeded(context.Background(), "pay_123")

	assert.Equal(t, types.NOTIFICATION_FAILED, outcome.Kind)
	assert.Empty(t, mailer.sent)
}

func TestPaymentSucceededLoadError(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("payment not found")}
	d := NewDispatcher(store, documents.NewRenderer(), &fakeMailer{}, nil, "https://app.example.com")

	outcome := d.PaymentSucceeded(context.Background(), "pay_404")

	assert.Equal(t, types.NOTIFICATION_FAILED, outcome.Kind)
	assert.Contains(t, outcome.Reason, "payment not found")
}

func TestTicketDocument(t *testing.T) {
	p := paidPayment()
	ticket := TicketDocument(p.Booking, "https://app.example.com/")
	assert.Equal(t, "https://app.example.com/verify-ticket/bk_1", ticket.VerificationURL)
	assert.Equal(t, "Andi", ticket.ExpertName)
	require.Len(t, ticket.Schedules, 1)
	assert.Equal(t, "Zoom", ticket.Schedules[0].Location)

	inv := InvoiceDocument(p)
	assert.Equal(t, "INV-123", inv.Number)
	assert.Equal(t, "DS1234567", inv.Reference)
	assert.Equal(t, *p.PaidAt, inv.IssuedAt)
}
