package lib

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/gawwe-id/oknum/src/config"
	"github.com/wneessen/go-mail"
)

var ErrMailerNotConfigured = errors.New("smtp is not configured")

// Mailer sends one message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, input *SendMailInput) error
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type SendMailInput struct {
	From        string
	FromName    string
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	Body        string
	Html        bool
	Attachments []Attachment
}

type SMTPMailer struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPMailer(cfg config.SMTP) (*SMTPMailer, error) {
	if !cfg.Configured() {
		return nil, ErrMailerNotConfigured
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		log.Printf("Could not initialize smtp client: %s\n", err.Error())
		return nil, err
	}
	return &SMTPMailer{client: c, from: cfg.From, fromName: cfg.FromName}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, input *SendMailInput) error {
	if input.From == "" {
		input.From = m.from
	}
	if input.FromName == "" {
		input.FromName = m.fromName
	}
	msg, err := NewMessage(input)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

// NewMessage builds a go-mail message with attachments from input.
func NewMessage(input *SendMailInput) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(input.FromName, input.From); err != nil {
		log.Printf("Failed to set From address: %s\n", err.Error())
		return nil, err
	}
	if err := msg.To(input.To...); err != nil {
		log.Printf("Failed to set To address: %s\n", err.Error())
		return nil, err
	}
	if input.ReplyTo != "" {
		if err := msg.ReplyTo(input.ReplyTo); err != nil {
			log.Printf("Failed to set Reply-To address: %s\n", err.Error())
		}
	}
	if len(input.Cc) > 0 {
		if err := msg.Cc(input.Cc...); err != nil {
			log.Printf("Failed to set Cc address: %s\n", err.Error())
		}
	}
	if len(input.Bcc) > 0 {
		if err := msg.Bcc(input.Bcc...); err != nil {
			log.Printf("Failed to set Bcc address: %s\n", err.Error())
		}
	}
	msg.Subject(input.Subject)
	if input.Html {
		msg.SetBodyString(mail.TypeTextHTML, input.Body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, input.Body)
	}
	for _, a := range input.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data), mail.WithFileContentType(mail.ContentType(ct))); err != nil {
			log.Printf("Failed to attach %s: %s\n", a.Name, err.Error())
			return nil, err
		}
	}
	return msg, nil
}
