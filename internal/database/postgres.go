package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/domain"
)

type Repo struct {
	pool   *pgxpool.Pool
	tables config.Tables
}

func New(pool *pgxpool.Pool, t config.Tables) *Repo { return &Repo{pool: pool, tables: t} }

// Connect opens a pool with SQL tracing routed to the logger. Queries are
// logged at debug level so production logs stay quiet.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		panic(err)
	}
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newZapTracer(logger),
		LogLevel: tracelog.LogLevelInfo,
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		panic(err)
	}
	if err := pool.Ping(ctx); err != nil {
		panic(err)
	}
	return pool
}

func (r *Repo) qt(tbl string) string { return fmt.Sprintf(`"%s"."%s"`, r.tables.Schema, tbl) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
