package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet.
func (r *Repo) Migrate(ctx context.Context) error {
	t := r.tables
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, t.Schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name       text NOT NULL,
			slug       text NOT NULL UNIQUE,
			parent_id  uuid REFERENCES %s (id) ON DELETE SET NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.Category), r.qt(t.Category)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			name        text NOT NULL,
			slug        text NOT NULL UNIQUE,
			description text,
			price       numeric(10,2) NOT NULL CHECK (price >= 0),
			old_price   numeric(10,2),
			discount    integer,
			stock       integer NOT NULL DEFAULT 0 CHECK (stock >= 0),
			is_new      boolean NOT NULL DEFAULT false,
			colors      text[] NOT NULL DEFAULT '{}',
			sizes       text[] NOT NULL DEFAULT '{}',
			category_id uuid NOT NULL REFERENCES %s (id),
			created_at  timestamptz NOT NULL DEFAULT now(),
			updated_at  timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.Product), r.qt(t.Category)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS products_name_trgm ON %s USING gin (name gin_trgm_ops)`, r.qt(t.Product)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS products_description_trgm ON %s USING gin (description gin_trgm_ops)`, r.qt(t.Product)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			url        text NOT NULL,
			is_main    boolean NOT NULL DEFAULT false,
			position   integer NOT NULL DEFAULT 0
		)`, r.qt(t.ProductImage), r.qt(t.Product)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			email         text NOT NULL UNIQUE,
			password_hash text NOT NULL,
			name          text,
			phone         text,
			address       text,
			role          text NOT NULL DEFAULT 'user',
			created_at    timestamptz NOT NULL DEFAULT now(),
			updated_at    timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.User)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			product_id uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			user_id    uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			rating     integer NOT NULL CHECK (rating BETWEEN 0 AND 5),
			comment    text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.Review), r.qt(t.Product), r.qt(t.User)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id             uuid PRIMARY KEY,
			user_id        uuid REFERENCES %s (id) ON DELETE SET NULL,
			customer_email text NOT NULL,
			customer_name  text,
			customer_phone text,
			total          numeric(12,2) NOT NULL,
			status         text NOT NULL DEFAULT 'pending',
			created_at     timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.Order), r.qt(t.User)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY,
			order_id   uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			product_id uuid NOT NULL REFERENCES %s (id),
			quantity   integer NOT NULL CHECK (quantity > 0),
			price      numeric(10,2) NOT NULL
		)`, r.qt(t.OrderItem), r.qt(t.Order), r.qt(t.Product)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id    uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			product_id uuid NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, product_id)
		)`, r.qt(t.Wishlist), r.qt(t.User), r.qt(t.Product)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         uuid PRIMARY KEY,
			name       text NOT NULL,
			email      text NOT NULL,
			phone      text NOT NULL,
			message    text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, r.qt(t.Contact)),
	}

	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
