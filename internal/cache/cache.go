package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/TemirB/storefront-api/internal/domain"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

type repo interface {
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	RecentProductSlugs(ctx context.Context, limit int) ([]string, error)
}

// Products is a slug-keyed product cache with per-entry expiry.
type Products struct {
	size int
	lru  *expirable.LRU[string, domain.Product]
}

func NewProducts(size int, ttl time.Duration) *Products {
	if size < 1 {
		size = 1
	}
	return &Products{
		size: size,
		lru:  expirable.NewLRU[string, domain.Product](size, nil, ttl),
	}
}

// Warm preloads the most recently updated products. Errors are skipped.
func (c *Products) Warm(ctx context.Context, repo repo) {
	if slugs, err := repo.RecentProductSlugs(ctx, c.size); err == nil {
		for _, slug := range slugs {
			if p, err := repo.ProductBySlug(ctx, slug); err == nil {
				c.Set(p)
			}
		}
	}
}

func (c *Products) Get(slug string) (*domain.Product, bool) {
	p, ok := c.lru.Get(slug)
	if !ok {
		return nil, false
	}
	return &p, true
}

func (c *Products) Set(p *domain.Product) {
	c.lru.Add(p.Slug, *p)
}

func (c *Products) Remove(slugs ...string) {
	for _, s := range slugs {
		c.lru.Remove(s)
	}
}

func (c *Products) Len() int { return c.lru.Len() }
