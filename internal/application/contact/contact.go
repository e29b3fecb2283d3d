package contact

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/mail"
)

//go:generate mockgen -source internal/application/contact/contact.go -destination=internal/application/contact/contact_mock_test.go -package=contact

type Store interface {
	SaveContactRequest(ctx context.Context, c *domain.ContactRequest) error
}

type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

type Request struct {
	Name    string
	Email   string
	Phone   string
	Message string
	// Hidden is a honeypot field that humans never fill in.
	Hidden string
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Service struct {
	store   Store
	mailer  Mailer
	timeout time.Duration
	logger  *zap.Logger
}

func NewService(store Store, mailer Mailer, mailTimeout time.Duration, logger *zap.Logger) *Service {
	return &Service{store: store, mailer: mailer, timeout: mailTimeout, logger: logger}
}

func (s *Service) Submit(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Hidden) != "" {
		s.logger.Info("honeypot triggered, contact request ignored", zap.String("email", req.Email))
		return Result{Success: true, Message: "Thank you!"}, nil
	}

	c := &domain.ContactRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if err := s.store.SaveContactRequest(ctx, c); err != nil {
		return Result{}, err
	}

	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.mailer.Send(mctx, render(c)); err != nil {
		s.logger.Error("Error while mailing contact request",
			zap.String("contact_id", c.ID.String()),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("failed to send email: %w", err)
	}
	return Result{Success: true, Message: "Your message has been sent!"}, nil
}

func render(c *domain.ContactRequest) mail.Message {
	phone := c.Phone
	if phone == "" {
		phone = "Not provided"
	}
	name := c.Name
	if name == "" {
		name = "Anonymous"
	}

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">`)
	b.WriteString(`<h2>New Contact Request</h2>`)
	fmt.Fprintf(&b, `<p><strong>Name:</strong> %s</p>`, html.EscapeString(c.Name))
	fmt.Fprintf(&b, `<p><strong>Email:</strong> <a href="mailto:%[1]s">%[1]s</a></p>`, html.EscapeString(c.Email))
	fmt.Fprintf(&b, `<p><strong>Phone:</strong> %s</p>`, html.EscapeString(phone))
	fmt.Fprintf(&b, `<hr><p style="white-space: pre-line;">%s</p><hr>`, html.EscapeString(c.Message))
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(&b, `<small style="color: #999;">Received on %s</small>`, c.CreatedAt.Format(time.RFC1123))
	}
	b.WriteString(`</div>`)

	return mail.Message{
		ReplyTo:   c.Email,
		ReplyName: name,
		Subject:   "New Contact Request from " + c.Name,
		Text:      fmt.Sprintf("New contact request from %s (%s, %s):\n\n%s", c.Name, c.Email, phone, c.Message),
		HTML:      b.String(),
	}
}
