package types

import (
	"context"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	ImageCredits int64     `json:"image_credits"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreditTransaction struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"user_id"`
	Email           string     `json:"email"`
	Amount          int64      `json:"amount"`
	Credits         int64      `json:"credits"`
	TransactionType CreditType `json:"transaction_type"`
	PaymentID       string     `json:"payment_id"`
	OrderID         string     `json:"order_id"`
	CreatedAt       time.Time  `json:"created_at"`
}

type UserStore interface {
	UpsertUser(ctx context.Context, user User) error
}
