package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/observability"
)

const laneBuffer = 16

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Consumer spreads messages over lanes by partition. A lane handles one
// message at a time and commits it only once handled, so offsets of a
// partition are committed in order and never past a failing message.
type Consumer struct {
	handler MessageHandler
	reader  Reader
	logger  *zap.Logger
	metrics observability.Metrics

	lanes      int
	skip       func(error) bool
	backoff    time.Duration
	maxBackoff time.Duration
}

type Option func(*Consumer)

// WithSkip marks errors after which retrying is pointless. Such messages are
// logged and committed.
func WithSkip(skip func(error) bool) Option {
	return func(c *Consumer) { c.skip = skip }
}

func WithBackoff(base, limit time.Duration) Option {
	return func(c *Consumer) {
		if base > 0 {
			c.backoff = base
		}
		if limit >= c.backoff {
			c.maxBackoff = limit
		}
	}
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, logger *zap.Logger, metrics observability.Metrics, opts ...Option) *Consumer {
	c := &Consumer{
		handler:    handler,
		reader:     reader,
		logger:     logger,
		metrics:    metrics,
		lanes:      max(workers, 1),
		skip:       func(error) bool { return false },
		backoff:    200 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start fetches until ctx is done and returns once every lane has stopped.
// Messages still queued in a lane at shutdown stay uncommitted and are
// delivered again after restart.
func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.logger.Info("Starting Kafka consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
		zap.Int("lanes", c.lanes),
	)

	lanes := make([]chan kafkago.Message, c.lanes)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafkago.Message, laneBuffer)
		wg.Add(1)
		go func(id int, in <-chan kafkago.Message) {
			defer wg.Done()
			c.runLane(ctx, id, in)
		}(i, lanes[i])
	}
	defer func() {
		for _, l := range lanes {
			close(l)
		}
		wg.Wait()
		c.logger.Info("Kafka consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			if isIdleTimeout(err) {
				c.logger.Debug("Kafka fetch idle", zap.Error(err))
				sleepWithContext(ctx, 10*time.Second)
				continue
			}
			// rebalancing and coordinator errors are transient
			c.logger.Warn("Error while fetching message, backing off", zap.Error(err))
			sleepWithContext(ctx, 500*time.Millisecond)
			continue
		}

		select {
		case lanes[msg.Partition%c.lanes] <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) runLane(ctx context.Context, id int, in <-chan kafkago.Message) {
	for msg := range in {
		if !c.process(ctx, id, msg) {
			return
		}
	}
}

// process handles msg until it succeeds or is skipped, then commits it.
// It returns false only when ctx ended first.
func (c *Consumer) process(ctx context.Context, lane int, msg kafkago.Message) bool {
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := c.handler.Handle(ctx, msg)
		elapsed := time.Since(start)
		c.metrics.ObserveKafka(float64(elapsed.Microseconds())/1000.0, err == nil)

		if err != nil && !c.skip(err) {
			c.logger.Error("Error while handling message, will retry",
				zap.Error(err),
				zap.Int("lane", lane),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
			)
			if !sleepWithContext(ctx, delay) {
				return false
			}
			delay = min(delay*2, c.maxBackoff)
			continue
		}

		if err != nil {
			c.logger.Warn("Dropping message",
				zap.Error(err),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.ByteString("key", msg.Key),
			)
		} else {
			c.logger.Debug("Message handled",
				zap.Int("lane", lane),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Duration("elapsed", elapsed),
			)
		}
		return c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafkago.Message) bool {
	for {
		err := c.reader.CommitMessages(ctx, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Warn("Error while committing offset",
			zap.Error(err),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)
		if !sleepWithContext(ctx, 200*time.Millisecond) {
			return false
		}
	}
}

// sleepWithContext reports false when ctx ended before d elapsed.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isIdleTimeout(err error) bool {
	if errors.Is(err, kafkago.RequestTimedOut) {
		return true
	}
	return strings.Contains(err.Error(), "no messages received from kafka within the allocated time")
}
