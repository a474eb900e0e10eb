package aws

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/gawwe-id/oknum/src/lib"
)

type sesSender interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESMailer delivers lib.SendMailInput through SES as a raw MIME message so
// attachments survive.
type SESMailer struct {
	client   sesSender
	from     string
	fromName string
}

func NewSESMailer(ctx context.Context, from string, fromName string) (*SESMailer, error) {
	if from == "" {
		return nil, errors.New("ses sender address is not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("Could not load default config: %s\n", err.Error())
		return nil, err
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), from: from, fromName: fromName}, nil
}

func (m *SESMailer) Send(ctx context.Context, input *lib.SendMailInput) error {
	if input.From == "" {
		input.From = m.from
	}
	if input.FromName == "" {
		input.FromName = m.fromName
	}
	msg, err := lib.NewMessage(input)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return err
	}
	out, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: buf.Bytes()},
	})
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return err
	}
	if out.MessageId != nil {
		log.Printf("Sent email with id: %s\n", *out.MessageId)
	}
	return nil
}
