package database

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TemirB/storefront-api/internal/domain"
)

// CreateOrder reserves stock for every item and inserts the order with its
// items in one transaction. If any product lacks stock nothing is written.
func (r *Repo) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, it := range lockOrder(o.Items) {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`
			UPDATE %s SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2
		`, r.qt(r.tables.Product)), it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, it.ProductID)
		}
	}

	err = tx.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, user_id, customer_email, customer_name, customer_phone, total, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, r.qt(r.tables.Order)),
		o.ID, o.UserID, o.CustomerEmail, o.CustomerName, o.CustomerPhone, o.Total, o.Status,
	).Scan(&o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (id, order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4,$5)
		`, r.qt(r.tables.OrderItem)), it.ID, o.ID, it.ProductID, it.Quantity, it.Price)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockOrder returns the items sorted by product id. Concurrent orders take
// product row locks in the same order and queue instead of deadlocking.
func lockOrder(items []domain.OrderItem) []domain.OrderItem {
	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b domain.OrderItem) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return out
}

func (r *Repo) orderSelect() string {
	return fmt.Sprintf(`
		SELECT id, user_id, customer_email, COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
		       total, status, created_at
		FROM %s`, r.qt(r.tables.Order))
}

func (r *Repo) OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx, r.orderSelect()+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (r *Repo) OrdersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return r.queryOrders(ctx, r.orderSelect()+` WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

func (r *Repo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1`, r.qt(r.tables.Order)), id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone,
			&o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachItems(ctx, out)
}

func (r *Repo) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	idx := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, order_id, product_id, quantity, price
		FROM %s WHERE order_id = ANY($1::uuid[])
		ORDER BY id
	`, r.qt(r.tables.OrderItem)), ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it  domain.OrderItem
			oid uuid.UUID
		)
		if err := rows.Scan(&it.ID, &oid, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return err
		}
		if i, ok := idx[oid]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}
