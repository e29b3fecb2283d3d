package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/storefront-api/internal/domain"
)

//go:generate mockgen -source internal/application/payment/service.go -destination=internal/application/payment/service_mock_test.go -package=payment

type Store interface {
	OrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type CallbackResult struct {
	Received bool               `json:"received"`
	Status   domain.OrderStatus `json:"status"`
}

type Service struct {
	store   Store
	gateway *LiqPay
	logger  *zap.Logger
}

func NewService(store Store, gateway *LiqPay, logger *zap.Logger) *Service {
	return &Service{store: store, gateway: gateway, logger: logger}
}

// HandleCallback verifies and applies a gateway notification. A repeated
// notification with the status the order already has is acknowledged
// without writing.
func (s *Service) HandleCallback(ctx context.Context, data, signature string) (CallbackResult, error) {
	if !s.gateway.Verify(data, signature) {
		s.logger.Warn("payment callback signature mismatch")
		return CallbackResult{}, fmt.Errorf("%w: invalid signature", domain.ErrUnauthorized)
	}

	n, orderID, err := s.gateway.Decode(data)
	if err != nil {
		return CallbackResult{}, err
	}
	status := MapStatus(n.Status)

	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return CallbackResult{}, fmt.Errorf("order %s: %w", orderID, err)
	}

	if order.Status == status {
		s.logger.Info("duplicate payment callback ignored",
			zap.String("order_id", orderID.String()),
			zap.String("status", string(status)),
		)
		return CallbackResult{Received: true, Status: status}, nil
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		s.logger.Error("Error while updating order status",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return CallbackResult{}, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("gateway_status", n.Status),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)
	return CallbackResult{Received: true, Status: status}, nil
}
