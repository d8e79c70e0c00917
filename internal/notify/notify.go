package notify

import (
	"context"

	"github.com/BatmanBruc/image-credits/types"
	"go.uber.org/multierr"
)

// Listener is told about every committed balance change.
type Listener interface {
	BalanceChanged(ctx context.Context, update types.BalanceUpdate) error
}

type Func func(ctx context.Context, update types.BalanceUpdate) error

func (f Func) BalanceChanged(ctx context.Context, update types.BalanceUpdate) error {
	return f(ctx, update)
}

// Fanout calls every listener and combines their errors.
type Fanout []Listener

func (f Fanout) BalanceChanged(ctx context.Context, update types.BalanceUpdate) error {
	var err error
	for _, l := range f {
		if l == nil {
			continue
		}
		err = multierr.Append(err, l.BalanceChanged(ctx, update))
	}
	return err
}

type Publisher interface {
	Publish(ctx context.Context, update types.BalanceUpdate) error
}

// PublisherListener forwards updates to a pub/sub channel, e.g. the Redis
// channel the account page's event stream listens on.
type PublisherListener struct {
	Publisher Publisher
}

func (p PublisherListener) BalanceChanged(ctx context.Context, update types.BalanceUpdate) error {
	return p.Publisher.Publish(ctx, update)
}
