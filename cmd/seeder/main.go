package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/database"
	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/pkg/random"
)

type seedCategory struct {
	name     string
	children []string
}

var tree = []seedCategory{
	{name: "Men", children: []string{"T-Shirts", "Jeans", "Jackets"}},
	{name: "Women", children: []string{"Dresses", "Skirts", "Blouses"}},
	{name: "Accessories", children: []string{"Bags", "Hats"}},
}

var (
	adjectives = []string{"Classic", "Slim", "Oversized", "Vintage", "Soft", "Urban", "Linen", "Cozy"}
	colors     = []string{"black", "white", "navy", "beige", "olive", "red"}
	sizes      = []string{"XS", "S", "M", "L", "XL"}
)

type store interface {
	InsertCategory(ctx context.Context, c *domain.Category) error
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	InsertProduct(ctx context.Context, p *domain.Product) error
}

type Seeder struct {
	store  store
	rng    *random.Source
	logger *zap.Logger

	created, skipped int
}

func (s *Seeder) Run(ctx context.Context, perCategory int) error {
	for _, root := range tree {
		parent := &domain.Category{ID: uuid.New(), Name: root.name, Slug: slugify(root.name)}
		if err := s.category(ctx, parent); err != nil {
			return err
		}
		for _, child := range root.children {
			c := &domain.Category{ID: uuid.New(), Name: child, Slug: slugify(root.name + " " + child), ParentID: &parent.ID}
			if err := s.category(ctx, c); err != nil {
				return err
			}
			for i := 0; i < perCategory; i++ {
				if err := s.product(ctx, s.generateProduct(c, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// category inserts c, or adopts the stored id when the slug already exists.
func (s *Seeder) category(ctx context.Context, c *domain.Category) error {
	err := s.store.InsertCategory(ctx, c)
	if errors.Is(err, domain.ErrConflict) {
		existing, err := s.store.CategoryBySlug(ctx, c.Slug)
		if err != nil {
			return fmt.Errorf("category %q: %w", c.Slug, err)
		}
		c.ID = existing.ID
		s.skipped++
		s.logger.Info("category exists, skipping", zap.String("slug", c.Slug))
		return nil
	}
	if err != nil {
		return fmt.Errorf("category %q: %w", c.Slug, err)
	}
	s.created++
	return nil
}

func (s *Seeder) product(ctx context.Context, p *domain.Product) error {
	err := s.store.InsertProduct(ctx, p)
	if errors.Is(err, domain.ErrConflict) {
		s.skipped++
		s.logger.Debug("product exists, skipping", zap.String("slug", p.Slug))
		return nil
	}
	if err != nil {
		return fmt.Errorf("product %q: %w", p.Slug, err)
	}
	s.created++
	return nil
}

func (s *Seeder) generateProduct(c *domain.Category, n int) *domain.Product {
	adj := adjectives[s.rng.IntN(len(adjectives))]
	name := fmt.Sprintf("%s %s %d", adj, strings.TrimSuffix(c.Name, "s"), n+1)

	price := decimal.NewFromInt(int64(10 + s.rng.IntN(190))).Add(decimal.New(99, -2))
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slugify(c.Slug + " " + name),
		Description: fmt.Sprintf("%s from our %s collection.", name, c.Name),
		Price:       price,
		Stock:       s.rng.IntN(50),
		IsNew:       s.rng.IntN(4) == 0,
		Colors:      pick(s.rng, colors, 1+s.rng.IntN(3)),
		Sizes:       pick(s.rng, sizes, 2+s.rng.IntN(3)),
		CategoryID:  c.ID,
		Images: []domain.Image{
			{URL: fmt.Sprintf("https://picsum.photos/seed/%s/600/800", slugify(name)), IsMain: true},
			{URL: fmt.Sprintf("https://picsum.photos/seed/%s-2/600/800", slugify(name))},
		},
	}

	// roughly a third of the catalogue is on sale
	if s.rng.IntN(3) == 0 {
		old := price.Mul(decimal.NewFromFloat(1.1 + s.rng.Float64()*0.5)).Round(2)
		p.OldPrice = decimal.NewNullDecimal(old)
		if pct, ok := domain.DiscountPercent(price, old); ok {
			p.Discount = &pct
		}
	}
	return p
}

func pick(rng *random.Source, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	cp := append([]string(nil), from...)
	rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp[:n]
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func main() {
	perCategory := flag.Int("per-category", 8, "products generated per leaf category")
	seed := flag.Uint64("seed", 0, "random seed, 0 seeds from time")
	flag.Parse()

	cfg := config.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg := database.Connect(ctx, cfg.DSN(), logger)
	defer pg.Close()
	repo := database.New(pg, cfg.Tables)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatal("Error while migrating schema", zap.Error(err))
	}

	rng := random.FromTime()
	if *seed != 0 {
		rng = random.New(*seed)
	}

	s := &Seeder{store: repo, rng: rng, logger: logger}
	if err := s.Run(ctx, *perCategory); err != nil {
		logger.Fatal("Seeding failed", zap.Error(err), zap.Int("created", s.created))
	}
	logger.Info("Seeding finished", zap.Int("created", s.created), zap.Int("skipped", s.skipped))
}
