package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TemirB/storefront-api/internal/cache"
	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/observability"
	"github.com/TemirB/storefront-api/internal/pkg/random"
)

//go:generate mockgen -source internal/application/catalog/catalog.go -destination=internal/application/catalog/catalog_mock_test.go -package=catalog

const (
	bestSellerLimit  = 60
	homepageBlock    = 4
	homepageSale     = 12
	homepageMixed    = 24
	searchLimit      = 20
	searchMinLen     = 3
	searchFuzzyAfter = 8
)

type Store interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListDiscounted(ctx context.Context) ([]domain.Product, error)
	ListNewArrivals(ctx context.Context, limit int) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	ProductAt(ctx context.Context, offset int) (*domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ProductsByCategorySlug(ctx context.Context, slug string) ([]domain.Product, error)
	SalesByProduct(ctx context.Context) (map[uuid.UUID]int, error)
	SearchProducts(ctx context.Context, q string, fuzzy bool, limit int) ([]domain.SearchHit, error)
}

type ProductCache interface {
	Get(slug string) (*domain.Product, bool)
	Set(p *domain.Product)
	Remove(slugs ...string)
}

type TTLs struct {
	Homepage    time.Duration
	SaleMinDays int
	SaleMaxDays int
	// Clock overrides time.Now for the TTL caches.
	Clock func() time.Time
}

type Service struct {
	store    Store
	products ProductCache
	rng      *random.Source
	logger   *zap.Logger
	metrics  observability.Metrics

	flashSale *cache.TTL[[]ProductView]
	banner    *cache.TTL[ProductView]
	homepage  *cache.TTL[Homepage]
}

func NewService(store Store, products ProductCache, rng *random.Source, ttls TTLs, logger *zap.Logger, metrics observability.Metrics) *Service {
	var opts []cache.Option
	if ttls.Clock != nil {
		opts = append(opts, cache.WithClock(ttls.Clock))
	}
	day := 24 * time.Hour
	s := &Service{
		store:     store,
		products:  products,
		rng:       rng,
		logger:    logger,
		metrics:   metrics,
		flashSale: cache.NewTTL[[]ProductView](cache.JitteredTTL(rng, ttls.SaleMinDays, ttls.SaleMaxDays, day), opts...),
		banner:    cache.NewTTL[ProductView](cache.JitteredTTL(rng, ttls.SaleMinDays, ttls.SaleMaxDays, day), opts...),
		homepage:  cache.NewTTL[Homepage](ttls.Homepage, opts...),
	}
	logger.Info("catalog caches configured",
		zap.Duration("flash_sale_ttl", s.flashSale.TTL()),
		zap.Duration("banner_ttl", s.banner.TTL()),
		zap.Duration("homepage_ttl", s.homepage.TTL()),
	)
	return s
}

func cached[T any](ctx context.Context, s *Service, key string, c *cache.TTL[T], load func(context.Context) (T, error)) (cache.Entry[T], LookupStats, error) {
	var st LookupStats
	start := time.Now()

	e, err := c.GetOrLoad(ctx, load)
	if err != nil {
		s.logger.Error("Can't compute cached value",
			zap.String("key", key),
			zap.Error(err),
		)
		return e, st, err
	}

	if e.Hit {
		st.Source = SourceCache
		st.CacheMs = msSince(start)
		s.metrics.IncCacheHit()
	} else {
		st.Source = SourceDB
		st.DBMs = msSince(start)
		s.metrics.IncCacheMiss()
		s.logger.Info("Cache refreshed",
			zap.String("key", key),
			zap.Time("expires_at", e.ExpiresAt),
			zap.Float64("db_ms", st.DBMs),
		)
	}
	s.metrics.ObserveLookup(key, string(st.Source), st.CacheMs, st.DBMs)
	return e, st, nil
}

// FlashSale lists discounted products, biggest discount first.
func (s *Service) FlashSale(ctx context.Context) (FlashSale, LookupStats, error) {
	e, st, err := cached(ctx, s, "flash_sale", s.flashSale, func(ctx context.Context) ([]ProductView, error) {
		ps, err := s.store.ListDiscounted(ctx)
		if err != nil {
			return nil, err
		}
		return NormalizeAll(ps), nil
	})
	if err != nil {
		return FlashSale{}, st, err
	}
	return FlashSale{ExpiresAt: e.ExpiresAt, Data: e.Value}, st, nil
}

// Banner returns one product picked uniformly at random.
func (s *Service) Banner(ctx context.Context) (Banner, LookupStats, error) {
	e, st, err := cached(ctx, s, "promo_banner", s.banner, s.pickBanner)
	if err != nil {
		return Banner{}, st, err
	}
	return Banner{ExpiresAt: e.ExpiresAt, Product: e.Value}, st, nil
}

func (s *Service) pickBanner(ctx context.Context) (ProductView, error) {
	n, err := s.store.CountProducts(ctx)
	if err != nil {
		return ProductView{}, err
	}
	if n == 0 {
		return ProductView{}, fmt.Errorf("%w: no products in the catalog", domain.ErrNotFound)
	}
	p, err := s.store.ProductAt(ctx, s.rng.IntN(n))
	if err != nil {
		return ProductView{}, fmt.Errorf("fetch random product: %w", err)
	}
	return Normalize(*p), nil
}

func (s *Service) Homepage(ctx context.Context) (Homepage, LookupStats, error) {
	e, st, err := cached(ctx, s, "homepage", s.homepage, s.buildHomepage)
	return e.Value, st, err
}

func (s *Service) buildHomepage(ctx context.Context) (Homepage, error) {
	var h Homepage
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.NewArrivals(ctx)
		h.NewArrivals = v
		return err
	})
	g.Go(func() error {
		v, err := s.BestSelling(ctx)
		h.BestSelling = firstN(v, homepageBlock)
		return err
	})
	g.Go(func() error {
		v, _, err := s.FlashSale(ctx)
		h.Discounts = Discounts{ExpiresAt: v.ExpiresAt, Items: firstN(v.Data, homepageSale)}
		return err
	})
	g.Go(func() error {
		v, _, err := s.Banner(ctx)
		h.Banner = v
		return err
	})
	g.Go(func() error {
		v, err := s.Mixed(ctx)
		h.AllProducts = firstN(v, homepageMixed)
		return err
	})

	if err := g.Wait(); err != nil {
		return Homepage{}, err
	}
	return h, nil
}

func (s *Service) NewArrivals(ctx context.Context) ([]ProductView, error) {
	ps, err := s.store.ListNewArrivals(ctx, homepageBlock)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(ps), nil
}

func (s *Service) BestSelling(ctx context.Context) ([]ProductView, error) {
	sales, err := s.store.SalesByProduct(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(RankBestSellers(ps, sales, bestSellerLimit)), nil
}

// Mixed returns one random product per category in random order.
func (s *Service) Mixed(ctx context.Context) ([]ProductView, error) {
	ps, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(SampleByCategory(ps, s.rng)), nil
}

func (s *Service) BySlug(ctx context.Context, slug string) (ProductView, LookupStats, error) {
	var st LookupStats

	tCacheStart := time.Now()
	if p, ok := s.products.Get(slug); ok {
		st.Source = SourceCache
		st.CacheMs = msSince(tCacheStart)
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup("product", string(st.Source), st.CacheMs, 0)
		return Normalize(*p), st, nil
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = msSince(tCacheStart)

	tDbStart := time.Now()
	p, err := s.store.ProductBySlug(ctx, slug)
	if err != nil {
		return ProductView{}, st, fmt.Errorf("product %q: %w", slug, err)
	}
	st.Source = SourceDB
	st.DBMs = msSince(tDbStart)

	s.products.Set(p)
	s.metrics.ObserveLookup("product", string(st.Source), st.CacheMs, st.DBMs)
	return Normalize(*p), st, nil
}

func (s *Service) ByCategory(ctx context.Context, slug string) ([]ProductView, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("%w: category slug is required", domain.ErrNotFound)
	}
	ps, err := s.store.ProductsByCategorySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, fmt.Errorf("%w: no products found for category %q", domain.ErrNotFound, slug)
	}
	return NormalizeAll(ps), nil
}

// Search serves autocomplete. Short queries use substring matching,
// longer ones trigram similarity.
func (s *Service) Search(ctx context.Context, q string) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	n := utf8.RuneCountInString(q)
	if n < searchMinLen {
		return []SearchResult{}, nil
	}
	hits, err := s.store.SearchProducts(ctx, q, n > searchFuzzyAfter, searchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		r := SearchResult{ID: h.ID, Name: h.Name, Slug: h.Slug, Price: h.Price.InexactFloat64()}
		if h.ImageID != nil && h.ImageURL != nil {
			r.Image = &SearchImage{ID: *h.ImageID, URL: *h.ImageURL}
		}
		out = append(out, r)
	}
	return out, nil
}

// Forget drops cached product pages, e.g. after their stock changed.
func (s *Service) Forget(slugs ...string) {
	s.products.Remove(slugs...)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
