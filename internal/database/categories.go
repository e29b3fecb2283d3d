package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
)

func (r *Repo) queryCategories(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryTree returns root categories with their children attached.
func (r *Repo) CategoryTree(ctx context.Context) ([]domain.Category, error) {
	all, err := r.queryCategories(ctx, fmt.Sprintf(`
		SELECT id, name, slug, parent_id FROM %s ORDER BY name, id
	`, r.qt(r.tables.Category)))
	if err != nil {
		return nil, err
	}

	children := make(map[uuid.UUID][]domain.Category)
	var roots []domain.Category
	for _, c := range all {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}
	for i := range roots {
		roots[i].Children = children[roots[i].ID]
	}
	return roots, nil
}

func (r *Repo) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	cs, err := r.queryCategories(ctx, fmt.Sprintf(`
		SELECT id, name, slug, parent_id FROM %s WHERE slug = $1
	`, r.qt(r.tables.Category)), slug)
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &cs[0], nil
}

func (r *Repo) ChildCategories(ctx context.Context, parentID uuid.UUID) ([]domain.Category, error) {
	return r.queryCategories(ctx, fmt.Sprintf(`
		SELECT id, name, slug, parent_id FROM %s WHERE parent_id = $1 ORDER BY name, id
	`, r.qt(r.tables.Category)), parentID)
}

// InsertCategory stores a category. A duplicate slug yields ErrConflict.
func (r *Repo) InsertCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, name, slug, parent_id) VALUES ($1,$2,$3,$4)
	`, r.qt(r.tables.Category)), c.ID, c.Name, c.Slug, c.ParentID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category slug %q exists", domain.ErrConflict, c.Slug)
	}
	return err
}
