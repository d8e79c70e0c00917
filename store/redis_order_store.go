package store

import (
	"context"
	"errors"
	"time"

	"github.com/BatmanBruc/image-credits/types"
	"github.com/google/uuid"
)

type RedisOrderStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewRedisOrderStore(redisClient *RedisClient, ttl time.Duration) *RedisOrderStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &RedisOrderStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *RedisOrderStore) pendingKey() string {
	return s.client.generateKey("orders", "pending")
}

func (s *RedisOrderStore) SaveOrder(ctx context.Context, order *types.RechargeOrder) error {
	if order.Receipt == "" {
		order.Receipt = uuid.New().String()
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.ExpiresAt = order.CreatedAt.Add(s.ttl)

	orderKey := s.client.generateKey("order", order.ID)
	if err := s.client.Set(ctx, orderKey, order, s.ttl); err != nil {
		return err
	}

	if err := s.client.client.SAdd(ctx, s.pendingKey(), order.ID).Err(); err != nil {
		_ = s.client.Del(ctx, orderKey)
		return err
	}

	return nil
}

func (s *RedisOrderStore) GetOrder(ctx context.Context, orderID string) (*types.RechargeOrder, error) {
	orderKey := s.client.generateKey("order", orderID)

	var order types.RechargeOrder
	if err := s.client.Get(ctx, orderKey, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (s *RedisOrderStore) DeleteOrder(ctx context.Context, orderID string) error {
	orderKey := s.client.generateKey("order", orderID)
	if err := s.client.Del(ctx, orderKey); err != nil {
		return err
	}
	return s.client.client.SRem(ctx, s.pendingKey(), orderID).Err()
}

// ListPendingOrders returns orders still awaiting payment. Index entries whose
// order key already expired are pruned.
func (s *RedisOrderStore) ListPendingOrders(ctx context.Context) ([]*types.RechargeOrder, error) {
	ids, err := s.client.client.SMembers(ctx, s.pendingKey()).Result()
	if err != nil {
		return nil, err
	}

	orders := make([]*types.RechargeOrder, 0, len(ids))
	for _, id := range ids {
		order, err := s.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				_ = s.client.client.SRem(ctx, s.pendingKey(), id).Err()
			}
			continue
		}
		orders = append(orders, order)
	}

	return orders, nil
}
