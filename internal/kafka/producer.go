package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/pkg/breaker"
	"github.com/TemirB/storefront-api/internal/pkg/retry"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type gate interface {
	Allow() error
	Success()
	Failure()
}

// Producer publishes order events. Messages are keyed by order id so that
// events of one order stay on one partition.
type Producer struct {
	writer      Writer
	breaker     gate
	retryPolicy config.Retry
	logger      *zap.Logger
}

func NewWriter(cfg config.Kafka) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewReader(cfg config.Kafka) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.Group,
		Topic:       cfg.Topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

func NewProducer(writer Writer, brk *breaker.Breaker, retryPolicy config.Retry, logger *zap.Logger) *Producer {
	return newProducer(writer, brk, retryPolicy, logger)
}

func newProducer(writer Writer, brk gate, retryPolicy config.Retry, logger *zap.Logger) *Producer {
	return &Producer{
		writer:      writer,
		breaker:     brk,
		retryPolicy: retryPolicy,
		logger:      logger,
	}
}

func (p *Producer) Publish(ctx context.Context, ev domain.OrderPlaced) error {
	if err := p.breaker.Allow(); err != nil {
		return fmt.Errorf("publish order %s: %w", ev.OrderID, err)
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(ev.OrderID.String()),
		Value: value,
		Time:  time.Now(),
	}

	if err := retry.Do(ctx, p.retryPolicy, func() error {
		return p.writer.WriteMessages(ctx, msg)
	}); err != nil {
		p.breaker.Failure()
		return fmt.Errorf("publish order %s: %w", ev.OrderID, err)
	}
	p.breaker.Success()

	p.logger.Debug("order event published",
		zap.String("order_id", ev.OrderID.String()),
		zap.Int("value_bytes", len(value)),
	)
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
