package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
)

func (r *Repo) WishlistProducts(ctx context.Context, userID uuid.UUID) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+fmt.Sprintf(`
		JOIN %s w ON w.product_id = p.id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, p.id`, r.qt(r.tables.Wishlist)), userID)
}

// AddToWishlist is idempotent.
func (r *Repo) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, product_id) VALUES ($1,$2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, r.qt(r.tables.Wishlist)), userID, productID)
	return err
}

func (r *Repo) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = $1 AND product_id = $2
	`, r.qt(r.tables.Wishlist)), userID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) SaveContactRequest(ctx context.Context, c *domain.ContactRequest) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, email, phone, message) VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, r.qt(r.tables.Contact)), c.ID, c.Name, c.Email, c.Phone, c.Message).Scan(&c.CreatedAt)
}
