package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/mail"
	"github.com/TemirB/storefront-api/internal/pkg/retry"
)

//go:generate mockgen -source internal/application/handler/handler.go -destination=internal/application/handler/handler_mock_test.go -package=handler

var (
	ErrBadJSON     = errors.New("bad json")
	ErrDeliver     = errors.New("notification delivery failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Mailer interface {
	Send(ctx context.Context, m mail.Message) error
}

type brk interface {
	Allow() error
	Success()
	Failure()
}

type Handler struct {
	mailer      Mailer
	breaker     brk
	logger      *zap.Logger
	retryPolicy config.Retry
}

func NewHandler(mailer Mailer, brk brk, retryPolicy config.Retry, logger *zap.Logger) *Handler {
	return &Handler{
		mailer:      mailer,
		breaker:     brk,
		logger:      logger,
		retryPolicy: retryPolicy,
	}
}

// Handle is called by the consumer for a single orders.placed message.
// The consumer commits the offset itself after Handle returns nil.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var ev domain.OrderPlaced
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Error("bad json format",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}
	if ev.OrderID == uuid.Nil || len(ev.Items) == 0 {
		h.logger.Error("incomplete order event",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}

	msg := Render(ev)
	if err := retry.Do(ctx, h.retryPolicy, func() error {
		return h.mailer.Send(ctx, msg)
	}); err != nil {
		h.logger.Error("notification failed after retries",
			zap.String("order_id", ev.OrderID.String()),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrDeliver
	}

	h.breaker.Success()
	h.logger.Info("order notification sent",
		zap.String("order_id", ev.OrderID.String()),
		zap.Int("items", len(ev.Items)),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
		zap.Int("value_bytes", len(message.Value)),
	)
	return nil
}

// Render builds the itemised shop notification for an order.
func Render(ev domain.OrderPlaced) mail.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New order %s\n\n", ev.OrderID)
	for i, it := range ev.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(&b, "%d. %s x%d @ %s = %s\n", i+1, it.Name, it.Quantity, it.Price.StringFixed(2), line.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\n", ev.Total.StringFixed(2))
	b.WriteString("Customer:\n")
	if ev.CustomerName != "" {
		fmt.Fprintf(&b, "  name: %s\n", ev.CustomerName)
	}
	fmt.Fprintf(&b, "  email: %s\n", ev.CustomerEmail)
	if ev.CustomerPhone != "" {
		fmt.Fprintf(&b, "  phone: %s\n", ev.CustomerPhone)
	}
	if !ev.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "\nPlaced at %s\n", ev.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	text := b.String()
	return mail.Message{
		ReplyTo:   ev.CustomerEmail,
		ReplyName: ev.CustomerName,
		Subject:   fmt.Sprintf("New order %s (%s)", ev.OrderID, ev.Total.StringFixed(2)),
		Text:      text,
		HTML:      "<pre>" + html.EscapeString(text) + "</pre>",
	}
}
