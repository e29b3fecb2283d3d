package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/TemirB/storefront-api/internal/domain"
)

const maxLimit = 100

type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	ItemCount  int `json:"itemCount"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

type PageParams struct {
	Page  int
	Limit int
}

// pageParams reports ok=false when the request does not ask for paging.
// Paging applies only when both page and limit are given.
func pageParams(r *http.Request) (PageParams, bool, error) {
	q := r.URL.Query()
	ps, ls := q.Get("page"), q.Get("limit")
	if ps == "" || ls == "" {
		return PageParams{}, false, nil
	}
	page, err := strconv.Atoi(ps)
	if err != nil || page < 1 {
		return PageParams{}, false, fmt.Errorf("%w: page must be an integer >= 1", domain.ErrBadRequest)
	}
	limit, err := strconv.Atoi(ls)
	if err != nil || limit < 1 || limit > maxLimit {
		return PageParams{}, false, fmt.Errorf("%w: limit must be an integer in 1..%d", domain.ErrBadRequest, maxLimit)
	}
	return PageParams{Page: page, Limit: limit}, true, nil
}

func Paginate[T any](items []T, p PageParams) Page[T] {
	total := len(items)
	start := (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{
		Data: data,
		Meta: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			ItemCount:  len(data),
			TotalItems: total,
			TotalPages: (total + p.Limit - 1) / p.Limit,
		},
	}
}

// writeList writes items as is, or as a Page when paging was requested.
func writeList[T any](s *Server, w http.ResponseWriter, r *http.Request, status int, items []T) {
	p, ok, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, status, items)
		return
	}
	writeJSON(w, status, Paginate(items, p))
}
