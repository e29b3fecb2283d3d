package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
)

type LookupSource string

const (
	SourceCache LookupSource = "cache"
	SourceDB    LookupSource = "db"
)

// LookupStats tells the HTTP layer where a read was served from and what
// each tier cost, in milliseconds.
type LookupStats struct {
	Source  LookupSource
	CacheMs float64
	DBMs    float64
}

type CategoryView struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parentId"`
}

type ImageView struct {
	ID     uuid.UUID `json:"id"`
	URL    string    `json:"url"`
	IsMain bool      `json:"isMain"`
}

type ProductView struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Description   string        `json:"description,omitempty"`
	Price         float64       `json:"price"`
	OldPrice      *float64      `json:"oldPrice"`
	Discount      *int          `json:"discount"`
	Stock         int           `json:"stock"`
	IsNew         bool          `json:"isNew"`
	Colors        []string      `json:"colors"`
	Sizes         []string      `json:"sizes"`
	CategoryID    uuid.UUID     `json:"categoryId"`
	Category      *CategoryView `json:"category,omitempty"`
	Images        []ImageView   `json:"images"`
	AverageRating *float64      `json:"averageRating"`
	ReviewCount   int           `json:"reviewCount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type FlashSale struct {
	ExpiresAt time.Time     `json:"expiresAt"`
	Data      []ProductView `json:"data"`
}

type Banner struct {
	ExpiresAt time.Time   `json:"expiresAt"`
	Product   ProductView `json:"product"`
}

type Discounts struct {
	ExpiresAt time.Time     `json:"expiresAt"`
	Items     []ProductView `json:"items"`
}

type Homepage struct {
	NewArrivals []ProductView `json:"newArrivals"`
	BestSelling []ProductView `json:"bestSelling"`
	Discounts   Discounts     `json:"discounts"`
	Banner      Banner        `json:"banner"`
	AllProducts []ProductView `json:"allProducts"`
}

type SearchImage struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type SearchResult struct {
	ID    uuid.UUID    `json:"id"`
	Name  string       `json:"name"`
	Price float64      `json:"price"`
	Slug  string       `json:"slug"`
	Image *SearchImage `json:"image,omitempty"`
}

// Normalize converts a stored product into its public shape.
func Normalize(p domain.Product) ProductView {
	v := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		Discount:      p.Discount,
		Stock:         p.Stock,
		IsNew:         p.IsNew,
		Colors:        nonNil(p.Colors),
		Sizes:         nonNil(p.Sizes),
		CategoryID:    p.CategoryID,
		Images:        make([]ImageView, 0, len(p.Images)),
		AverageRating: p.AverageRating(),
		ReviewCount:   p.ReviewCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.OldPrice.Valid {
		old := p.OldPrice.Decimal.InexactFloat64()
		v.OldPrice = &old
	}
	if p.Category != nil {
		v.Category = &CategoryView{
			ID:       p.Category.ID,
			Name:     p.Category.Name,
			Slug:     p.Category.Slug,
			ParentID: p.Category.ParentID,
		}
	}
	for _, img := range p.Images {
		v.Images = append(v.Images, ImageView{ID: img.ID, URL: img.URL, IsMain: img.IsMain})
	}
	return v
}

func NormalizeAll(ps []domain.Product) []ProductView {
	out := make([]ProductView, 0, len(ps))
	for _, p := range ps {
		out = append(out, Normalize(p))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
