package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle stage of an order
type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "CREATED"
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusComplete OrderStatus = "COMPLETE"
)

// CanTransitionTo reports whether s may move to next. The lifecycle is
// strictly forward: CREATED -> PENDING -> COMPLETE, no skips, no reversals.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusPending
	case OrderStatusPending:
		return next == OrderStatusComplete
	default:
		// COMPLETE is terminal.
		return false
	}
}

// Order represents a customer order. TotalPrice is a snapshot computed from
// product prices at creation time and never recomputed.
type Order struct {
	ID         int64           `db:"id" json:"id"`
	TotalPrice decimal.Decimal `db:"total_price" json:"price"`
	Status     OrderStatus     `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"timestamp"`
	Customer   string          `db:"customer" json:"user"`
}

// OrderProduct is one line of an order, identified by (order, product).
type OrderProduct struct {
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// PendingPickup is an order waiting for a courier, as listed to couriers.
type PendingPickup struct {
	ID    int64  `db:"id" json:"id"`
	Email string `db:"customer" json:"email"`
}

// OrderLineView is an order line expanded with current product data.
// Categories reflect the product's present assignment, not a snapshot.
type OrderLineView struct {
	Categories []string        `json:"categories"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

// UserOrder is one order of a user's history with its expanded lines.
type UserOrder struct {
	Products  []OrderLineView `json:"products"`
	Price     decimal.Decimal `json:"price"`
	Status    OrderStatus     `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}
