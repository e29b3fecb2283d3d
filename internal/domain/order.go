package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
	StatusFailed  OrderStatus = "failed"
)

type OrderItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	// Price is the unit price at the moment the order was placed.
	Price decimal.Decimal
}

type Order struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
	Total         decimal.Decimal
	Status        OrderStatus
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderLine is a requested product and quantity, before pricing.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// OrderPlaced is published after an order is committed.
type OrderPlaced struct {
	OrderID       uuid.UUID         `json:"order_id"`
	CustomerEmail string            `json:"customer_email"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	Total         decimal.Decimal   `json:"total"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// PaymentPayload is an opaque checkout blob for the payment gateway widget.
type PaymentPayload struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}
