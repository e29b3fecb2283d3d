package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Image struct {
	ID     uuid.UUID
	URL    string
	IsMain bool
}

type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	OldPrice    decimal.NullDecimal
	Discount    *int
	Stock       int
	IsNew       bool
	Colors      []string
	Sizes       []string
	CategoryID  uuid.UUID
	Category    *Category
	Images      []Image
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Review aggregate. RatingAvg is the raw mean, zero when there are no reviews.
	RatingAvg   float64
	ReviewCount int
}

// AverageRating is the mean review rating rounded to one decimal, nil without reviews.
func (p Product) AverageRating() *float64 {
	if p.ReviewCount == 0 {
		return nil
	}
	v := math.Round(p.RatingAvg*10) / 10
	return &v
}

func (p Product) MainImage() (Image, bool) {
	for _, img := range p.Images {
		if img.IsMain {
			return img, true
		}
	}
	return Image{}, false
}

// DiscountPercent returns round((old-price)/old*100). ok is false when old is not above price.
func DiscountPercent(price, old decimal.Decimal) (int, bool) {
	if !old.IsPositive() || old.LessThanOrEqual(price) {
		return 0, false
	}
	pct := old.Sub(price).Div(old).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart()), true
}

// SearchHit is a trimmed product row for autocomplete.
type SearchHit struct {
	ID       uuid.UUID
	Name     string
	Slug     string
	Price    decimal.Decimal
	ImageID  *uuid.UUID
	ImageURL *string
}
