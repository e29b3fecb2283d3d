package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
)

const (
	topicDialTimeout = 10 * time.Second
	topicReadyWait   = 10 * time.Second
	topicPollEvery   = 500 * time.Millisecond
)

type topicConn interface {
	ReadPartitions(topics ...string) ([]kafkago.Partition, error)
	Controller() (kafkago.Broker, error)
	CreateTopics(topics ...kafkago.TopicConfig) error
	Close() error
}

type dialFunc func(ctx context.Context, addr string) (topicConn, error)

func dialKafka(ctx context.Context, addr string) (topicConn, error) {
	d := &kafkago.Dialer{Timeout: topicDialTimeout}
	return d.DialContext(ctx, "tcp", addr)
}

// EnsureTopic creates the orders topic on the cluster controller when it is
// missing and waits until its partitions show up in metadata.
func EnsureTopic(ctx context.Context, cfg config.Kafka, logger *zap.Logger) error {
	return ensureTopic(ctx, cfg, dialKafka, logger)
}

func ensureTopic(ctx context.Context, cfg config.Kafka, dial dialFunc, logger *zap.Logger) error {
	if len(cfg.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	if cfg.Topic == "" {
		return errors.New("empty kafka topic")
	}
	partitions := max(cfg.Partitions, 1)

	conn, err := dialAny(ctx, cfg.Brokers, dial)
	if err != nil {
		return err
	}
	defer conn.Close()

	if parts, err := conn.ReadPartitions(cfg.Topic); err == nil && len(parts) > 0 {
		logger.Info("Kafka topic exists", zap.String("topic", cfg.Topic), zap.Int("partitions", len(parts)))
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka controller: %w", err)
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrl, err := dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", addr, err)
	}
	defer ctrl.Close()

	logger.Info("Creating Kafka topic",
		zap.String("topic", cfg.Topic),
		zap.Int("partitions", partitions),
		zap.Int("replication", max(cfg.Replication, 1)),
	)
	err = ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: max(cfg.Replication, 1),
	})
	if err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", cfg.Topic, err)
	}

	return waitPartitions(ctx, conn, cfg.Topic, partitions, logger)
}

// dialAny returns the first broker that answers.
func dialAny(ctx context.Context, brokers []string, dial dialFunc) (topicConn, error) {
	var errs []error
	for _, b := range brokers {
		conn, err := dial(ctx, b)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, fmt.Errorf("dial %s: %w", b, err))
	}
	return nil, errors.Join(errs...)
}

func waitPartitions(ctx context.Context, conn topicConn, topic string, want int, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, topicReadyWait)
	defer cancel()

	tick := time.NewTicker(topicPollEvery)
	defer tick.Stop()
	for {
		parts, err := conn.ReadPartitions(topic)
		if err == nil && len(parts) >= want {
			logger.Info("Kafka topic is ready", zap.String("topic", topic), zap.Int("partitions", len(parts)))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("topic %s not visible: %w", topic, ctx.Err())
		case <-tick.C:
		}
	}
}
