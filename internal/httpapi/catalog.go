package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TemirB/storefront-api/internal/application/catalog"
	"github.com/TemirB/storefront-api/internal/observability"
)

type flashSalePage struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Page[catalog.ProductView]
}

func writeStats(w http.ResponseWriter, st catalog.LookupStats) {
	observability.StampLookup(w.Header(), string(st.Source), st.CacheMs, st.DBMs)
}

func (s *Server) discounts(w http.ResponseWriter, r *http.Request) {
	p, paged, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sale, st, err := s.svc.Catalog.FlashSale(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeStats(w, st)
	if !paged {
		writeJSON(w, http.StatusOK, sale)
		return
	}
	writeJSON(w, http.StatusOK, flashSalePage{ExpiresAt: sale.ExpiresAt, Page: Paginate(sale.Data, p)})
}

func (s *Server) bestSelling(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Catalog.BestSelling(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, ps)
}

func (s *Server) newArrivals(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Catalog.NewArrivals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, ps)
}

func (s *Server) mixed(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Catalog.Mixed(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, ps)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) homepage(w http.ResponseWriter, r *http.Request) {
	h, st, err := s.svc.Catalog.Homepage(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeStats(w, st)
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) banner(w http.ResponseWriter, r *http.Request) {
	b, st, err := s.svc.Catalog.Banner(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeStats(w, st)
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) productBySlug(w http.ResponseWriter, r *http.Request) {
	p, st, err := s.svc.Catalog.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeStats(w, st)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) categoryProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := s.svc.Catalog.ByCategory(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(s, w, r, http.StatusOK, ps)
}

func (s *Server) categoryTree(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.Categories.Tree(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) categoryChildren(w http.ResponseWriter, r *http.Request) {
	cs, err := s.svc.Categories.Children(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}
