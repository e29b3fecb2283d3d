package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/application/auth"
	"github.com/TemirB/storefront-api/internal/application/catalog"
	"github.com/TemirB/storefront-api/internal/application/category"
	"github.com/TemirB/storefront-api/internal/application/contact"
	"github.com/TemirB/storefront-api/internal/application/order"
	"github.com/TemirB/storefront-api/internal/application/payment"
	"github.com/TemirB/storefront-api/internal/application/wishlist"
	"github.com/TemirB/storefront-api/internal/cache"
	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/database"
	"github.com/TemirB/storefront-api/internal/httpapi"
	"github.com/TemirB/storefront-api/internal/kafka"
	"github.com/TemirB/storefront-api/internal/mail"
	"github.com/TemirB/storefront-api/internal/observability"
	"github.com/TemirB/storefront-api/internal/pkg/breaker"
	"github.com/TemirB/storefront-api/internal/pkg/pool"
	"github.com/TemirB/storefront-api/internal/pkg/random"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg := database.Connect(ctx, cfg.DSN(), logger)
	defer pg.Close()
	repo := database.New(pg, cfg.Tables)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatal("Error while migrating schema", zap.Error(err))
	}

	products := cache.NewProducts(cfg.Cache.ProductSize, cfg.Cache.ProductTTL)
	t0 := time.Now()
	products.Warm(ctx, repo)
	logger.Info("Product cache warmed", zap.Duration("took", time.Since(t0)))

	rng := random.FromTime()
	if !cfg.Cache.SeedFromTime {
		rng = random.New(cfg.Cache.RandomSeed)
	}

	metrics := observability.NewInmem(200)

	if err := kafka.EnsureTopic(ctx, cfg.Kafka, logger); err != nil {
		logger.Warn("Could not ensure Kafka topic", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
	}
	producer := kafka.NewProducer(kafka.NewWriter(cfg.Kafka), breaker.New(cfg.Breaker), cfg.Retry, logger)
	defer producer.Close()

	dispatch := pool.New(cfg.NotifyWorkers)
	defer dispatch.Shutdown()

	liqpay := payment.NewLiqPay(cfg.LiqPay)
	catalogSvc := catalog.NewService(repo, products, rng, catalog.TTLs{
		Homepage:    cfg.Cache.HomepageTTL,
		SaleMinDays: cfg.Cache.SaleMinDays,
		SaleMaxDays: cfg.Cache.SaleMaxDays,
	}, logger, metrics)

	svc := httpapi.Services{
		Catalog:    catalogSvc,
		Orders:     order.NewService(repo, producer, liqpay, catalogSvc, dispatch, cfg.SideEffectTTL, logger, metrics),
		Payments:   payment.NewService(repo, liqpay, logger),
		Auth:       auth.NewService(repo, cfg.Auth, logger),
		Categories: category.NewService(repo),
		Wishlist:   wishlist.NewService(repo, logger),
		Contact:    contact.NewService(repo, mail.NewSendGrid(cfg.Mail, logger), cfg.SideEffectTTL, logger),
	}

	srv := httpapi.New(svc, httpapi.CookieConfig{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Auth.SecureCookie,
	}, cfg.AllowedOrigins, logger, metrics, metrics)

	logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return
	}
	logger.Info("HTTP server stopped")
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
