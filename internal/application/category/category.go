package category

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
)

//go:generate mockgen -source internal/application/category/category.go -destination=internal/application/category/category_mock_test.go -package=category

type Store interface {
	CategoryTree(ctx context.Context) ([]domain.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ChildCategories(ctx context.Context, parentID uuid.UUID) ([]domain.Category, error)
}

type View struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parentId"`
	Children []View     `json:"children,omitempty"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Tree returns root categories with their direct children.
func (s *Service) Tree(ctx context.Context) ([]View, error) {
	roots, err := s.store.CategoryTree(ctx)
	if err != nil {
		return nil, err
	}
	return toViews(roots), nil
}

func (s *Service) Children(ctx context.Context, slug string) ([]View, error) {
	parent, err := s.store.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", slug, err)
	}
	cs, err := s.store.ChildCategories(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	return toViews(cs), nil
}

func toViews(cs []domain.Category) []View {
	out := make([]View, 0, len(cs))
	for _, c := range cs {
		v := View{ID: c.ID, Name: c.Name, Slug: c.Slug, ParentID: c.ParentID}
		if len(c.Children) > 0 {
			v.Children = toViews(c.Children)
		}
		out = append(out, v)
	}
	return out
}
