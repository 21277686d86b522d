package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/apperr"
)

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message and returns its delivery identifier.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPConfig holds the outbound transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	Timeout  time.Duration
}

// SMTPSender delivers mail through an authenticated SMTP server. Each Send
// dials a fresh connection.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "PawfectCare"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// Send builds the message and submits it. Any transport, authentication or
// addressing failure is a KindDelivery error.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.cfg.FromName, s.cfg.Username); err != nil {
		return "", apperr.Wrap(apperr.KindDelivery, "invalid sender address", err)
	}
	if err := m.To(msg.To); err != nil {
		return "", apperr.Wrap(apperr.KindDelivery, "invalid recipient address", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	m.SetMessageID()
	m.SetDate()

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return "", apperr.Wrap(apperr.KindDelivery, "smtp client", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", apperr.Wrap(apperr.KindDelivery, "smtp send", err)
	}
	return m.GetMessageID(), nil
}

// LogSender logs messages instead of delivering them. It is used when no
// SMTP host is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", apperr.New(apperr.KindDelivery, "missing recipient")
	}
	id := fmt.Sprintf("<%s@pawfect.local>", uuid.NewString())
	if s.Logger != nil {
		s.Logger.Info("email not delivered (log sender)",
			zap.String("message_id", id),
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Int("html_bytes", len(msg.HTML)),
		)
	}
	return id, nil
}
