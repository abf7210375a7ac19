package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"go.uber.org/zap"
)

// ErrNoRecipients is returned when a message has no valid recipient
var ErrNoRecipients = errors.New("email has no recipients")

// Message is an outbound email
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers email. Implementations must honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromConfig builds the sender selected by cfg.Provider
func NewFromConfig(cfg *config.EmailConfig, logger *zap.Logger) (Sender, error) {
	from := formatFrom(cfg.FromName, cfg.FromAddress)
	switch cfg.Provider {
	case "resend":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("email provider resend requires an API key")
		}
		return NewResendSender(cfg.BaseURL, cfg.APIKey, from, cfg.TimeoutDuration()), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("email provider smtp requires a host")
		}
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.FromAddress,
		}), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("invalid recipient %q: %w", to, err)
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("email subject is required")
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used in
// development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("email")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("email not sent, log provider active",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTMLBody)),
	)
	return nil
}
