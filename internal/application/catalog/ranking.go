package catalog

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/pkg/random"
)

const (
	salesWeight  = 0.7
	ratingWeight = 0.3
)

// Score ranks a product by units sold and its mean rating on a 0..50 scale.
func Score(sales int, avgRating float64) float64 {
	return float64(sales)*salesWeight + avgRating*10*ratingWeight
}

// RankBestSellers orders products by Score descending, ties broken by id.
func RankBestSellers(products []domain.Product, sales map[uuid.UUID]int, limit int) []domain.Product {
	type scored struct {
		p     domain.Product
		score float64
	}
	all := make([]scored, 0, len(products))
	for _, p := range products {
		all = append(all, scored{p: p, score: Score(sales[p.ID], p.RatingAvg)})
	}
	slices.SortFunc(all, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return bytes.Compare(a.p.ID[:], b.p.ID[:])
	})

	all = firstN(all, limit)
	out := make([]domain.Product, len(all))
	for i, s := range all {
		out[i] = s.p
	}
	return out
}

// SampleByCategory picks one random product per category and shuffles the picks.
func SampleByCategory(products []domain.Product, rng *random.Source) []domain.Product {
	var order []uuid.UUID
	groups := make(map[uuid.UUID][]domain.Product)
	for _, p := range products {
		if _, ok := groups[p.CategoryID]; !ok {
			order = append(order, p.CategoryID)
		}
		groups[p.CategoryID] = append(groups[p.CategoryID], p)
	}

	reps := make([]domain.Product, 0, len(order))
	for _, id := range order {
		g := groups[id]
		reps = append(reps, g[rng.IntN(len(g))])
	}
	rng.Shuffle(len(reps), func(i, j int) { reps[i], reps[j] = reps[j], reps[i] })
	return reps
}
