package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/BatmanBruc/image-credits/types"
)

type BalanceChannel struct {
	client *RedisClient
}

func NewBalanceChannel(redisClient *RedisClient) *BalanceChannel {
	return &BalanceChannel{client: redisClient}
}

func (c *BalanceChannel) channel(email string) string {
	return c.client.generateKey("balance", strings.ToLower(strings.TrimSpace(email)))
}

func (c *BalanceChannel) Publish(ctx context.Context, update types.BalanceUpdate) error {
	return c.client.Publish(ctx, c.channel(update.Email), update)
}

// Subscribe streams balance updates for email until ctx is done.
func (c *BalanceChannel) Subscribe(ctx context.Context, email string) (<-chan types.BalanceUpdate, error) {
	ps := c.client.Subscribe(ctx, c.channel(email))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan types.BalanceUpdate)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update types.BalanceUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
