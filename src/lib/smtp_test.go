package lib

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gawwe-id/oknum/src/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageWithAttachments(t *testing.T) {
	msg, err := NewMessage(&SendMailInput{
		From:     "noreply@example.com",
		FromName: "Oknum",
		To:       []string{"siti@example.com"},
		Subject:  "Your booking is confirmed",
		Body:     "<p>See attached</p>",
		Html:     true,
		Attachments: []Attachment{
			{Name: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3 invoice")},
			{Name: "ticket.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3 ticket")},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Your booking is confirmed")
	assert.Contains(t, raw, `filename="invoice.pdf"`)
	assert.Contains(t, raw, `filename="ticket.pdf"`)
	assert.GreaterOrEqual(t, strings.Count(raw, "application/pdf"), 2)
}

func TestNewMessageInvalidRecipient(t *testing.T) {
	_, err := NewMessage(&SendMailInput{
		From: "noreply@example.com",
		To:   []string{"not-an-address"},
	})
	assert.Error(t, err)
}

func TestNewSMTPMailerRequiresConfig(t *testing.T) {
	_, err := NewSMTPMailer(config.SMTP{Port: 587})
	assert.ErrorIs(t, err, ErrMailerNotConfigured)

	m, err := NewSMTPMailer(config.SMTP{Host: "localhost", Port: 2525, From: "noreply@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}
