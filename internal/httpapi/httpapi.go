package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/application/auth"
	"github.com/TemirB/storefront-api/internal/application/catalog"
	"github.com/TemirB/storefront-api/internal/application/category"
	"github.com/TemirB/storefront-api/internal/application/contact"
	"github.com/TemirB/storefront-api/internal/application/order"
	"github.com/TemirB/storefront-api/internal/application/payment"
	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/observability"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/httpapi_mock_test.go -package=httpapi

type Catalog interface {
	FlashSale(ctx context.Context) (catalog.FlashSale, catalog.LookupStats, error)
	Banner(ctx context.Context) (catalog.Banner, catalog.LookupStats, error)
	Homepage(ctx context.Context) (catalog.Homepage, catalog.LookupStats, error)
	NewArrivals(ctx context.Context) ([]catalog.ProductView, error)
	BestSelling(ctx context.Context) ([]catalog.ProductView, error)
	Mixed(ctx context.Context) ([]catalog.ProductView, error)
	BySlug(ctx context.Context, slug string) (catalog.ProductView, catalog.LookupStats, error)
	ByCategory(ctx context.Context, slug string) ([]catalog.ProductView, error)
	Search(ctx context.Context, q string) ([]catalog.SearchResult, error)
}

type Orders interface {
	Place(ctx context.Context, req order.PlaceRequest) (order.View, error)
	List(ctx context.Context, userID uuid.UUID) ([]order.View, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (order.View, error)
}

type Payments interface {
	HandleCallback(ctx context.Context, data, signature string) (payment.CallbackResult, error)
}

type Auth interface {
	Register(ctx context.Context, email, password string, name *string) (auth.Profile, auth.Tokens, error)
	Login(ctx context.Context, email, password string) (auth.Profile, auth.Tokens, error)
	Refresh(ctx context.Context, refresh string) (auth.Tokens, error)
	Authenticate(token string) (uuid.UUID, error)
	Profile(ctx context.Context, id uuid.UUID) (auth.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd domain.ProfileUpdate) (auth.Profile, error)
}

type Categories interface {
	Tree(ctx context.Context) ([]category.View, error)
	Children(ctx context.Context, slug string) ([]category.View, error)
}

type Wishlist interface {
	List(ctx context.Context, userID uuid.UUID) ([]catalog.ProductView, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (catalog.ProductView, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
}

type Contact interface {
	Submit(ctx context.Context, req contact.Request) (contact.Result, error)
}

// Snapshotter exposes recent observations for /debug/metrics.
type Snapshotter interface {
	Snapshot() observability.Snapshot
}

type Services struct {
	Catalog    Catalog
	Orders     Orders
	Payments   Payments
	Auth       Auth
	Categories Categories
	Wishlist   Wishlist
	Contact    Contact
}

type CookieConfig struct {
	Domain string
	Secure bool
}

type Server struct {
	svc      Services
	router   chi.Router
	logger   *zap.Logger
	metrics  observability.Metrics
	snapshot Snapshotter
	validate *validator.Validate
	cookie   CookieConfig
	origins  []string
}

func New(svc Services, cookie CookieConfig, origins []string, logger *zap.Logger, metrics observability.Metrics, snapshot Snapshotter) *Server {
	s := &Server{
		svc:      svc,
		logger:   logger,
		metrics:  metrics,
		snapshot: snapshot,
		validate: validator.New(),
		cookie:   cookie,
		origins:  origins,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		ServerTimingApp(s.metrics),
		cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Server-Timing", "X-Source"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/debug/metrics", s.debugMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/product", func(r chi.Router) {
			r.Get("/", s.mixed)
			r.Get("/discounts", s.discounts)
			r.Get("/best-selling", s.bestSelling)
			r.Get("/new-arrivals", s.newArrivals)
			r.Get("/mixed", s.mixed)
			r.Get("/search", s.search)
			r.Get("/homepage", s.homepage)
			r.Get("/category-products/{slug}", s.categoryProducts)
			r.Get("/{slug}", s.productBySlug)
		})
		r.Get("/promo/banner", s.banner)

		r.Get("/category", s.categoryTree)
		r.Get("/category/{slug}/children", s.categoryChildren)

		r.With(s.optionalAuth).Post("/order", s.placeOrder)
		r.With(s.requireAuth).Get("/order", s.listOrders)
		r.With(s.requireAuth).Get("/order/{id}", s.getOrder)
		r.Post("/payment-callback", s.paymentCallback)

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.listWishlist)
			r.Post("/", s.addToWishlist)
			r.Delete("/{productId}", s.removeFromWishlist)
		})

		r.Post("/contact", s.submitContact)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.register)
			r.Post("/login", s.login)
			r.Post("/refresh", s.refresh)
			r.Post("/logout", s.logout)
			r.With(s.requireAuth).Get("/profile", s.profile)
			r.With(s.requireAuth).Patch("/profile", s.updateProfile)
		})
	})
	s.router = r
}

func (s *Server) debugMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.snapshot == nil {
		writeJSON(w, http.StatusOK, observability.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.snapshot.Snapshot())
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Handler() http.Handler { return s.router }
