package documents

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedules() []ScheduleLine {
	start := time.Date(2026, 11, 2, 2, 0, 0, 0, time.UTC)
	return []ScheduleLine{
		{StartsAt: start, EndsAt: start.Add(2 * time.Hour), Location: "Zoom"},
		{StartsAt: start.Add(7 * 24 * time.Hour), EndsAt: start.Add(7*24*time.Hour + 2*time.Hour)},
	}
}

func TestInvoice(t *testing.T) {
	paid := time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC)
	data, err := NewRenderer().Invoice(context.Background(), Invoice{
		Number:        "INV-pay_123",
		PaymentID:     "pay_123",
		BookingID:     "bk_1",
		Reference:     "DS1234567",
		PaymentMethod: "BC",
		IssuedAt:      paid,
		PaidAt:        &paid,
		StudentName:   "Siti Nurhaliza",
		StudentEmail:  "siti@example.com",
		ClassTitle:    "Kelas Go untuk Pemula",
		ExpertName:    "Andi",
		Amount:        150000,
		Currency:      "IDR",
		Schedules:     schedules(),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestTicket(t *testing.T) {
	data, err := NewRenderer().Ticket(context.Background(), Ticket{
		BookingID:       "bk_1",
		StudentName:     "Siti Nurhaliza",
		StudentEmail:    "siti@example.com",
		ClassTitle:      "Kelas Go untuk Pemula",
		Schedules:       schedules(),
		VerificationURL: "https://app.example.com/verify-ticket/bk_1",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestTicketWithoutVerificationURL(t *testing.T) {
	_, err := NewRenderer().Ticket(context.Background(), Ticket{BookingID: "bk_1"})
	assert.Error(t, err)
}

func TestFinalizeTimeout(t *testing.T) {
	r := NewRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Invoice(ctx, Invoice{Number: "INV-1", Amount: 1})
	if err != nil {
		assert.ErrorIs(t, err, ErrFinalizeTimeout)
	}
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("https://app.example.com/verify-ticket/bk_1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = QRCode("")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "Rp 150.000", FormatAmount(150000, "IDR"))
	assert.Equal(t, "Rp 1.250.000", FormatAmount(1250000, ""))
	assert.Equal(t, "Rp 999", FormatAmount(999, "IDR"))
	assert.Equal(t, "USD 1.000", FormatAmount(1000, "usd"))
	assert.Equal(t, "Rp -5.000", FormatAmount(-5000, "IDR"))
}
