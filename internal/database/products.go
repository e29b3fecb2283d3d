package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/TemirB/storefront-api/internal/domain"
)

func (r *Repo) productSelect() string {
	return fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, COALESCE(p.description, ''), p.price, p.old_price, p.discount,
		       p.stock, p.is_new, p.colors, p.sizes, p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.parent_id,
		       COALESCE(rv.avg, 0), COALESCE(rv.cnt, 0)
		FROM %s p
		JOIN %s c ON c.id = p.category_id
		LEFT JOIN (
			SELECT product_id, AVG(rating)::float8 AS avg, COUNT(*) AS cnt
			FROM %s GROUP BY product_id
		) rv ON rv.product_id = p.id`,
		r.qt(r.tables.Product), r.qt(r.tables.Category), r.qt(r.tables.Review))
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p   domain.Product
		cat domain.Category
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OldPrice, &p.Discount,
		&p.Stock, &p.IsNew, &p.Colors, &p.Sizes, &p.CreatedAt, &p.UpdatedAt,
		&cat.ID, &cat.Name, &cat.Slug, &cat.ParentID,
		&p.RatingAvg, &p.ReviewCount,
	)
	if err != nil {
		return p, err
	}
	p.CategoryID = cat.ID
	p.Category = &cat
	return p, nil
}

func (r *Repo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachImages(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) attachImages(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	idx := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		idx[p.ID] = i
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, product_id, url, is_main
		FROM %s WHERE product_id = ANY($1::uuid[])
		ORDER BY is_main DESC, position, id
	`, r.qt(r.tables.ProductImage)), ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			img domain.Image
			pid uuid.UUID
		)
		if err := rows.Scan(&img.ID, &pid, &img.URL, &img.IsMain); err != nil {
			return err
		}
		if i, ok := idx[pid]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	return rows.Err()
}

func (r *Repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+` ORDER BY p.created_at DESC, p.id`)
}

func (r *Repo) ListDiscounted(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+` WHERE p.discount > 0 ORDER BY p.discount DESC, p.id`)
}

func (r *Repo) ListNewArrivals(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+` WHERE p.is_new ORDER BY p.created_at DESC, p.id LIMIT $1`, limit)
}

func (r *Repo) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.qt(r.tables.Product))).Scan(&n)
	return n, err
}

// ProductAt returns the product at a stable position, used for random picks.
func (r *Repo) ProductAt(ctx context.Context, offset int) (*domain.Product, error) {
	ps, err := r.queryProducts(ctx, r.productSelect()+` ORDER BY p.id OFFSET $1 LIMIT 1`, offset)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, domain.ErrNotFound
	}
	return &ps[0], nil
}

func (r *Repo) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	ps, err := r.queryProducts(ctx, r.productSelect()+` WHERE p.slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, domain.ErrNotFound
	}
	return &ps[0], nil
}

func (r *Repo) ProductsByCategorySlug(ctx context.Context, slug string) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+` WHERE c.slug = $1 ORDER BY p.created_at DESC, p.id`, slug)
}

func (r *Repo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	return r.queryProducts(ctx, r.productSelect()+` WHERE p.id = ANY($1::uuid[])`, ids)
}

func (r *Repo) RecentProductSlugs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT slug FROM %s
		ORDER BY updated_at DESC
		LIMIT $1
	`, r.qt(r.tables.Product)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slugs = append(slugs, s)
	}
	return slugs, rows.Err()
}

// SalesByProduct sums ordered quantities per product.
func (r *Repo) SalesByProduct(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT product_id, SUM(quantity) FROM %s GROUP BY product_id
	`, r.qt(r.tables.OrderItem)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id  uuid.UUID
			sum int
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		out[id] = sum
	}
	return out, rows.Err()
}

// SearchProducts matches by substring, or by trigram similarity when fuzzy is set.
func (r *Repo) SearchProducts(ctx context.Context, q string, fuzzy bool, limit int) ([]domain.SearchHit, error) {
	where := `p.name ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%'`
	if fuzzy {
		where = `p.name % $1 OR p.description % $1`
	}
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.price, img.id, img.url
		FROM %s p
		LEFT JOIN %s img ON img.product_id = p.id AND img.is_main
		WHERE %s
		ORDER BY p.updated_at DESC
		LIMIT $2
	`, r.qt(r.tables.Product), r.qt(r.tables.ProductImage), where), q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		var h domain.SearchHit
		if err := rows.Scan(&h.ID, &h.Name, &h.Slug, &h.Price, &h.ImageID, &h.ImageURL); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// InsertProduct stores a product with its images. A duplicate slug yields ErrConflict.
func (r *Repo) InsertProduct(ctx context.Context, p *domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, slug, description, price, old_price, discount, stock,
		  is_new, colors, sizes, category_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, r.qt(r.tables.Product)),
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OldPrice, p.Discount, p.Stock,
		p.IsNew, p.Colors, p.Sizes, p.CategoryID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product slug %q exists", domain.ErrConflict, p.Slug)
		}
		return err
	}

	batch := &pgx.Batch{}
	for i, img := range p.Images {
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		batch.Queue(fmt.Sprintf(`
			INSERT INTO %s (id, product_id, url, is_main, position) VALUES ($1,$2,$3,$4,$5)
		`, r.qt(r.tables.ProductImage)), img.ID, p.ID, img.URL, img.IsMain, i)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
