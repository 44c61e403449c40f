// Package mail renders and delivers the transactional emails of the application.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/tenantgate/tenantgate/internal/config"
)

const (
	// DriverSMTP delivers through an SMTP server.
	DriverSMTP = "smtp"
	// DriverLog only writes the message to the log.
	DriverLog = "log"
)

var (
	// ErrNoRecipient is returned for messages without To.
	ErrNoRecipient = errors.New("mail: message has no recipient")

	// ErrUnknownDriver is returned for drivers other than smtp and log.
	ErrUnknownDriver = errors.New("mail: unknown driver")
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender configured by cfg.Driver.
func New(cfg config.Mail, logger zerolog.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSMTP:
		return NewSMTPSender(cfg)
	case DriverLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
}

// LogSender writes messages to the log instead of sending them, used in development.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("text", msg.Text).
		Msg("email not sent, log driver")

	return nil
}

// SMTPSender delivers messages through an SMTP server.
type SMTPSender struct {
	from   string
	client *gomail.Client
}

// NewSMTPSender creates an SMTP sender. The connection is opened per message.
func NewSMTPSender(cfg config.Mail) (*SMTPSender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.SMTP.Port)}

	if cfg.SMTP.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTP.Username),
			gomail.WithPassword(cfg.SMTP.Password),
		)
	}

	if cfg.SMTP.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPSender{from: cfg.From, client: client}, nil
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.message(msg)
	if err != nil {
		return err
	}

	if err = s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	return nil
}

// message builds the MIME message, plain text with an html alternative.
func (s *SMTPSender) message(msg Message) (*gomail.Msg, error) {
	if msg.To == "" {
		return nil, ErrNoRecipient
	}

	m := gomail.NewMsg()

	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.from, err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)

	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}

	return m, nil
}
