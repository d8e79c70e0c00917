package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/metrics"
	"github.com/BatmanBruc/image-credits/types"
)

type staticOrders struct {
	orders []*types.RechargeOrder
}

func (s *staticOrders) SaveOrder(context.Context, *types.RechargeOrder) error { return nil }
func (s *staticOrders) GetOrder(context.Context, string) (*types.RechargeOrder, error) {
	return nil, nil
}
func (s *staticOrders) DeleteOrder(context.Context, string) error { return nil }
func (s *staticOrders) ListPendingOrders(context.Context) ([]*types.RechargeOrder, error) {
	return s.orders, nil
}

type recordingReconciler struct {
	mu      sync.Mutex
	calls   map[string]int
	block   chan struct{}
	started chan string
}

func (r *recordingReconciler) ReconcileOrder(ctx context.Context, orderID string) error {
	if r.started != nil {
		r.started <- orderID
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	r.mu.Lock()
	r.calls[orderID]++
	r.mu.Unlock()
	return nil
}

func (r *recordingReconciler) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func TestSchedulerReconcilesPendingOrders(t *testing.T) {
	orders := &staticOrders{orders: []*types.RechargeOrder{{ID: "order_1"}, {ID: "order_2"}, nil}}
	rec := &recordingReconciler{calls: map[string]int{}}

	s := NewScheduler(orders, rec, zap.NewNop(), Config{Workers: 2, Interval: time.Hour})
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return rec.count("order_1") == 1 && rec.count("order_2") == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScanReportsPendingOrders(t *testing.T) {
	orders := &staticOrders{orders: []*types.RechargeOrder{{ID: "order_1"}, {ID: "order_2"}, {ID: "order_3"}}}
	s := NewScheduler(orders, &recordingReconciler{calls: map[string]int{}}, zap.NewNop(), Config{Workers: 1})
	defer s.cancel()

	s.scan()
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.ReconcilePendingOrders))

	orders.orders = orders.orders[:1]
	s.scan()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ReconcilePendingOrders))
}

func TestEnqueueDeduplicatesInFlight(t *testing.T) {
	rec := &recordingReconciler{
		calls:   map[string]int{},
		block:   make(chan struct{}),
		started: make(chan string, 1),
	}
	s := NewScheduler(&staticOrders{}, rec, zap.NewNop(), Config{Workers: 1, Interval: time.Hour})
	s.Start()
	defer s.Stop()

	assert.True(t, s.Enqueue("order_1"))
	<-rec.started
	assert.False(t, s.Enqueue("order_1"))

	close(rec.block)
	require.Eventually(t, func() bool { return rec.count("order_1") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		s.inFlightMu.Lock()
		defer s.inFlightMu.Unlock()
		return len(s.inFlight) == 0
	}, 2*time.Second, 10*time.Millisecond)

	rec.started = nil
	assert.True(t, s.Enqueue("order_1"))
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(&staticOrders{}, &recordingReconciler{calls: map[string]int{}}, nil, Config{})
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
