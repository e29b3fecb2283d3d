package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
)

var ErrNotConfigured = errors.New("sendgrid api key is empty")

type Message struct {
	To        string
	ReplyTo   string
	ReplyName string
	Subject   string
	Text      string
	HTML      string
}

// SendGrid delivers Messages through the SendGrid v3 API.
type SendGrid struct {
	cfg    config.Mail
	client *sendgrid.Client
	logger *zap.Logger
}

func NewSendGrid(cfg config.Mail, logger *zap.Logger) *SendGrid {
	return newSendGrid(cfg, "", logger)
}

// newSendGrid targets host instead of the public API when host is set.
func newSendGrid(cfg config.Mail, host string, logger *zap.Logger) *SendGrid {
	s := &SendGrid{cfg: cfg, logger: logger}
	if cfg.APIKey != "" {
		req := sendgrid.GetRequest(cfg.APIKey, "/v3/mail/send", host)
		req.Method = "POST"
		s.client = &sendgrid.Client{Request: req}
	}
	return s
}

// Send delivers m. An empty recipient falls back to the shop mailbox.
func (s *SendGrid) Send(ctx context.Context, m Message) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	to := m.To
	if to == "" {
		to = s.cfg.To
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}
	if s.cfg.From == "" {
		return fmt.Errorf("from address is empty")
	}

	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.cfg.FromName, s.cfg.From),
		m.Subject,
		sgmail.NewEmail("", to),
		m.Text,
		m.HTML,
	)
	if m.ReplyTo != "" {
		msg.SetReplyTo(sgmail.NewEmail(m.ReplyName, m.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
		)
		return fmt.Errorf("sendgrid send failed: status=%d", resp.StatusCode)
	}

	s.logger.Info("Mail sent",
		zap.Int("status", resp.StatusCode),
		zap.String("subject", m.Subject),
	)
	return nil
}
