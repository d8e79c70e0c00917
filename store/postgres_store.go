package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BatmanBruc/image-credits/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// ErrEmailTaken means the email already belongs to a user with another id.
var ErrEmailTaken = errors.New("email is linked to another account")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *PostgresStore) UpsertUser(ctx context.Context, user types.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	email := normalizeEmail(user.Email)
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (id, email)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  updated_at = NOW()
WHERE users.email <> EXCLUDED.email
`, strings.TrimSpace(user.ID), email)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_email_key" {
		return fmt.Errorf("user %s: %w", email, ErrEmailTaken)
	}
	return err
}

func (s *PostgresStore) GetBalance(ctx context.Context, email string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var balance int64
	err := s.pool.QueryRow(ctx, `
SELECT image_credits
FROM users
WHERE email = $1
`, normalizeEmail(email)).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return 0, err
	}
	return balance, nil
}

func (s *PostgresStore) ApplyRecharge(ctx context.Context, t types.CreditTransaction) (int64, bool, error) {
	if strings.TrimSpace(t.PaymentID) == "" {
		return 0, false, errors.New("payment id is required")
	}
	if t.Credits <= 0 {
		return 0, false, fmt.Errorf("credits must be positive, got %d", t.Credits)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	email := normalizeEmail(t.Email)
	var userID string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1 FOR UPDATE`, email).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return 0, false, fmt.Errorf("lock user: %w", err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO credit_transactions (user_id, email, amount, credits, transaction_type, payment_id, order_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (payment_id) DO NOTHING
`, userID, email, t.Amount, t.Credits, string(t.TransactionType), strings.TrimSpace(t.PaymentID), strings.TrimSpace(t.OrderID))
	if err != nil {
		return 0, false, fmt.Errorf("insert credit transaction: %w", err)
	}

	var balance int64
	if tag.RowsAffected() == 0 {
		err = tx.QueryRow(ctx, `SELECT image_credits FROM users WHERE email = $1`, email).Scan(&balance)
		if err != nil {
			return 0, false, fmt.Errorf("read balance: %w", err)
		}
		return balance, false, nil
	}

	err = tx.QueryRow(ctx, `
UPDATE users
SET image_credits = image_credits + $2, updated_at = NOW()
WHERE email = $1
RETURNING image_credits
`, email, t.Credits).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return 0, false, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, email string, limit int) ([]types.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, email, amount, credits, transaction_type, payment_id, order_id, created_at
FROM credit_transactions
WHERE email = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, normalizeEmail(email), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.CreditTransaction
	for rows.Next() {
		var t types.CreditTransaction
		var txType string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Email, &t.Amount, &t.Credits, &txType, &t.PaymentID, &t.OrderID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.TransactionType = types.CreditType(txType)
		out = append(out, t)
	}
	return out, rows.Err()
}
