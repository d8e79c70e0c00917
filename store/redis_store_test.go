package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BatmanBruc/image-credits/types"
)

func newTestRedis(t *testing.T) *RedisClient {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	c, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_TEST_PASSWORD"), 0, prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisOrderStore(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	s := NewRedisOrderStore(c, time.Minute)

	order := &types.RechargeOrder{ID: "order_1", Email: "a@b.com", Amount: 20, Credits: 12, Type: types.CreditTypeImage}
	require.NoError(t, s.SaveOrder(ctx, order))
	assert.NotEmpty(t, order.Receipt)
	assert.False(t, order.ExpiresAt.IsZero())

	got, err := s.GetOrder(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Credits)

	pending, err := s.ListPendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.DeleteOrder(ctx, "order_1"))
	_, err = s.GetOrder(ctx, "order_1")
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err = s.ListPendingOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRedisLocker(t *testing.T) {
	c := newTestRedis(t)
	ctx := context.Background()
	l := NewRedisLocker(c)

	release, ok, err := l.Acquire(ctx, "payment:pay_1", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "payment:pay_1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release2, ok, err := l.Acquire(ctx, "payment:pay_1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestBalanceChannel(t *testing.T) {
	c := newTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch := NewBalanceChannel(c)

	updates, err := ch.Subscribe(ctx, "A@B.com")
	require.NoError(t, err)

	require.NoError(t, ch.Publish(ctx, types.BalanceUpdate{Email: "a@b.com", Balance: 18, CreditsAdded: 6}))

	select {
	case u := <-updates:
		assert.Equal(t, int64(18), u.Balance)
	case <-ctx.Done():
		t.Fatal("no balance update received")
	}
}
