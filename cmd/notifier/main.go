package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/application/handler"
	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/kafka"
	"github.com/TemirB/storefront-api/internal/mail"
	"github.com/TemirB/storefront-api/internal/observability"
	"github.com/TemirB/storefront-api/internal/pkg/breaker"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if !cfg.IsProduction() {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kafka.EnsureTopic(ctx, cfg.Kafka, logger); err != nil {
		logger.Warn("Could not ensure Kafka topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}

	reader := kafka.NewReader(cfg.Kafka)
	defer func() {
		if err := reader.Close(); err != nil {
			logger.Warn("Error while closing Kafka reader", zap.Error(err))
		}
	}()

	h := handler.NewHandler(mail.NewSendGrid(cfg.Mail, logger), breaker.New(cfg.Breaker), cfg.Retry, logger)
	consumer := kafka.NewConsumer(h, reader, cfg.Kafka.Workers, logger, observability.NewNoop(),
		kafka.WithSkip(func(err error) bool { return errors.Is(err, handler.ErrBadJSON) }),
		kafka.WithBackoff(cfg.Retry.Base, cfg.Retry.Max),
	)

	consumer.Start(ctx)
	logger.Info("Notifier stopped")
}
