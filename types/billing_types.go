package types

import "context"

type BillingStore interface {
	GetBalance(ctx context.Context, email string) (int64, error)
	// ApplyRecharge inserts the transaction and increments the balance in one
	// database transaction. applied is false when the payment was already recorded.
	ApplyRecharge(ctx context.Context, tx CreditTransaction) (balance int64, applied bool, err error)
	ListTransactions(ctx context.Context, email string, limit int) ([]CreditTransaction, error)
}
