package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/domain"
	"github.com/TemirB/storefront-api/internal/observability"
)

//go:generate mockgen -source internal/application/order/order.go -destination=internal/application/order/order_mock_test.go -package=order

type Store interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Product, error)
	CreateOrder(ctx context.Context, o *domain.Order) error
	OrdersByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type Notifier interface {
	Publish(ctx context.Context, ev domain.OrderPlaced) error
}

type PaymentLinker interface {
	Checkout(o *domain.Order) (*domain.PaymentPayload, error)
}

// StockWatcher is told which product pages went stale.
type StockWatcher interface {
	Forget(slugs ...string)
}

type Dispatcher interface {
	TrySubmit(f func()) bool
}

type PlaceRequest struct {
	UserID        *uuid.UUID
	Items         []domain.OrderLine
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
}

type ItemView struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
}

type View struct {
	ID        uuid.UUID              `json:"id"`
	Total     float64                `json:"total"`
	Status    domain.OrderStatus     `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
	Items     []ItemView             `json:"items"`
	LiqPay    *domain.PaymentPayload `json:"liqpay,omitempty"`
}

type Service struct {
	store    Store
	notifier Notifier
	payments PaymentLinker
	stock    StockWatcher
	dispatch Dispatcher
	timeout  time.Duration
	logger   *zap.Logger
	metrics  observability.Metrics
}

func NewService(
	store Store,
	notifier Notifier,
	payments PaymentLinker,
	stock StockWatcher,
	dispatch Dispatcher,
	sideEffectTimeout time.Duration,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		payments: payments,
		stock:    stock,
		dispatch: dispatch,
		timeout:  sideEffectTimeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Place validates the request against current stock, commits the order and
// then runs the side effects. Side effect failures never undo the order.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (View, error) {
	lines, err := mergeLines(req.Items)
	if err != nil {
		return View{}, err
	}

	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.store.ProductsByIDs(ctx, ids)
	if err != nil {
		return View{}, err
	}
	if len(products) != len(ids) {
		return View{}, fmt.Errorf("%w: one or more products not found", domain.ErrBadRequest)
	}
	byID := make(map[uuid.UUID]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	o := &domain.Order{
		ID:            uuid.New(),
		UserID:        req.UserID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        domain.StatusPending,
		Total:         decimal.Zero,
	}
	for _, l := range lines {
		p := byID[l.ProductID]
		if l.Quantity > p.Stock {
			return View{}, fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, p.ID)
		}
		o.Items = append(o.Items, domain.OrderItem{
			ID:        uuid.New(),
			ProductID: p.ID,
			Quantity:  l.Quantity,
			Price:     p.Price,
		})
		o.Total = o.Total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	t0 := time.Now()
	err = s.store.CreateOrder(ctx, o)
	dbMs := float64(time.Since(t0).Microseconds()) / 1000.0
	s.metrics.ObserveOrder(dbMs, err == nil)
	if errors.Is(err, domain.ErrBadRequest) {
		s.logger.Warn("Order rejected at commit",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return View{}, err
	}
	if err != nil {
		s.logger.Error("Error while creating order",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return View{}, err
	}
	s.logger.Info("Order placed",
		zap.String("order_id", o.ID.String()),
		zap.Bool("guest", o.UserID == nil),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("items", len(o.Items)),
		zap.Float64("db_write_ms", dbMs),
	)

	slugs := make([]string, 0, len(products))
	for _, p := range products {
		slugs = append(slugs, p.Slug)
	}
	s.stock.Forget(slugs...)

	s.notify(placedEvent(o, byID))

	v := toView(o)
	v.LiqPay = s.checkout(o)
	return v, nil
}

func (s *Service) notify(ev domain.OrderPlaced) {
	ok := s.dispatch.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.notifier.Publish(ctx, ev); err != nil {
			s.logger.Warn("order notification failed",
				zap.String("order_id", ev.OrderID.String()),
				zap.Error(err),
			)
		}
	})
	if !ok {
		s.logger.Warn("notification queue full, dropping", zap.String("order_id", ev.OrderID.String()))
	}
}

func (s *Service) checkout(o *domain.Order) *domain.PaymentPayload {
	p, err := s.payments.Checkout(o)
	if err != nil {
		s.logger.Warn("payment payload unavailable",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return nil
	}
	return p
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	orders, err := s.store.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(orders))
	for i := range orders {
		out = append(out, toView(&orders[i]))
	}
	return out, nil
}

// Get returns an order owned by userID. Foreign orders look missing.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (View, error) {
	o, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return View{}, fmt.Errorf("order %s: %w", orderID, err)
	}
	if o.UserID == nil || *o.UserID != userID {
		return View{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	v := toView(o)
	v.LiqPay = s.checkout(o)
	return v, nil
}

func mergeLines(in []domain.OrderLine) ([]domain.OrderLine, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: order has no items", domain.ErrBadRequest)
	}
	idx := make(map[uuid.UUID]int, len(in))
	out := make([]domain.OrderLine, 0, len(in))
	for _, l := range in {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrBadRequest)
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func placedEvent(o *domain.Order, products map[uuid.UUID]domain.Product) domain.OrderPlaced {
	ev := domain.OrderPlaced{
		OrderID:       o.ID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, domain.OrderPlacedItem{
			ProductID: it.ProductID,
			Name:      products[it.ProductID].Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return ev
}

func toView(o *domain.Order) View {
	v := View{
		ID:        o.ID,
		Total:     o.Total.InexactFloat64(),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		Items:     make([]ItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, ItemView{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		})
	}
	return v
}
