package types

import (
	"context"
	"time"
)

// RechargeOrder is a recharge request that has been handed to the checkout
// gateway and is waiting for payment.
type RechargeOrder struct {
	ID        string      `json:"id"`
	Receipt   string      `json:"receipt"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Amount    int64       `json:"amount"`
	Credits   int64       `json:"credits"`
	Type      CreditType  `json:"type"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type OrderStore interface {
	SaveOrder(ctx context.Context, order *RechargeOrder) error
	GetOrder(ctx context.Context, orderID string) (*RechargeOrder, error)
	DeleteOrder(ctx context.Context, orderID string) error
	ListPendingOrders(ctx context.Context) ([]*RechargeOrder, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type BalanceUpdate struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email"`
	Type         CreditType `json:"type"`
	Balance      int64      `json:"balance"`
	CreditsAdded int64      `json:"credits_added"`
	Amount       int64      `json:"amount"`
	PaymentID    string     `json:"payment_id"`
}
