package payment

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/TemirB/storefront-api/internal/config"
	"github.com/TemirB/storefront-api/internal/domain"
)

const apiVersion = "3"

var ErrNotConfigured = errors.New("payment gateway is not configured")

type checkoutParams struct {
	PublicKey   string  `json:"public_key"`
	Version     string  `json:"version"`
	Action      string  `json:"action"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Sandbox     int     `json:"sandbox"`
	ResultURL   string  `json:"result_url,omitempty"`
	ServerURL   string  `json:"server_url,omitempty"`
}

// Notification is the decoded callback payload. Only the fields we act on.
type Notification struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  any    `json:"amount,omitempty"`
}

// LiqPay builds signed checkout payloads and verifies callbacks.
type LiqPay struct {
	cfg config.LiqPay
}

func NewLiqPay(cfg config.LiqPay) *LiqPay { return &LiqPay{cfg: cfg} }

// Sign is base64(sha1(private + data + private)).
func (l *LiqPay) Sign(data string) string {
	sum := sha1.Sum([]byte(l.cfg.PrivateKey + data + l.cfg.PrivateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (l *LiqPay) Verify(data, signature string) bool {
	want := l.Sign(data)
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}

func (l *LiqPay) Checkout(o *domain.Order) (*domain.PaymentPayload, error) {
	if l.cfg.PublicKey == "" || l.cfg.PrivateKey == "" {
		return nil, ErrNotConfigured
	}
	p := checkoutParams{
		PublicKey:   l.cfg.PublicKey,
		Version:     apiVersion,
		Action:      "pay",
		Amount:      o.Total.InexactFloat64(),
		Currency:    l.cfg.Currency,
		Description: fmt.Sprintf("Order #%s", o.ID),
		OrderID:     o.ID.String(),
		ResultURL:   l.cfg.ResultURL,
		ServerURL:   l.cfg.ServerURL,
	}
	if l.cfg.Sandbox {
		p.Sandbox = 1
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	data := base64.StdEncoding.EncodeToString(raw)
	return &domain.PaymentPayload{Data: data, Signature: l.Sign(data)}, nil
}

func (l *LiqPay) Decode(data string) (Notification, uuid.UUID, error) {
	var n Notification
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return n, uuid.Nil, fmt.Errorf("%w: payload is not base64", domain.ErrBadRequest)
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, uuid.Nil, fmt.Errorf("%w: payload is not json", domain.ErrBadRequest)
	}
	id, err := uuid.Parse(n.OrderID)
	if err != nil {
		return n, uuid.Nil, fmt.Errorf("%w: bad order_id %q", domain.ErrBadRequest, n.OrderID)
	}
	return n, id, nil
}

// MapStatus folds gateway statuses onto order statuses. Unknown means pending.
func MapStatus(s string) domain.OrderStatus {
	switch s {
	case "success", "sandbox":
		return domain.StatusPaid
	case "failure", "error":
		return domain.StatusFailed
	default:
		return domain.StatusPending
	}
}
