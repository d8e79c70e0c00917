package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/metrics"
	"github.com/BatmanBruc/image-credits/types"
)

type Reconciler interface {
	ReconcileOrder(ctx context.Context, orderID string) error
}

type Scheduler struct {
	orders     types.OrderStore
	reconciler Reconciler
	logger     *zap.Logger
	workers    int
	interval   time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	orderQueue chan string
	inFlight   map[string]struct{}
	inFlightMu sync.Mutex
}

type Config struct {
	Workers  int
	Interval time.Duration
}

func NewScheduler(orders types.OrderStore, reconciler Reconciler, logger *zap.Logger, config Config) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 3
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	queueSize := config.Workers * 2
	if queueSize < 10 {
		queueSize = 10
	}

	return &Scheduler{
		orders:     orders,
		reconciler: reconciler,
		logger:     logger,
		workers:    config.Workers,
		interval:   config.Interval,
		ctx:        ctx,
		cancel:     cancel,
		orderQueue: make(chan string, queueSize),
		inFlight:   make(map[string]struct{}),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("reconciler started", zap.Int("workers", s.workers), zap.Duration("interval", s.interval))

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go s.loop()
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("stopping reconciler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("reconciler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.scan()
		}
	}
}

func (s *Scheduler) scan() {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	orders, err := s.orders.ListPendingOrders(ctx)
	if err != nil {
		s.logger.Warn("failed to list pending orders", zap.Error(err))
		return
	}
	metrics.ReconcilePendingOrders.Set(float64(len(orders)))

	enqueued := 0
	for _, order := range orders {
		if order == nil || order.ID == "" {
			continue
		}
		if s.Enqueue(order.ID) {
			enqueued++
		}
	}
	if enqueued > 0 {
		s.logger.Debug("pending orders enqueued", zap.Int("enqueued", enqueued), zap.Int("pending", len(orders)))
	}
}

// Enqueue reports false when the order is already queued or being reconciled.
func (s *Scheduler) Enqueue(orderID string) bool {
	s.inFlightMu.Lock()
	if _, exists := s.inFlight[orderID]; exists {
		s.inFlightMu.Unlock()
		return false
	}
	s.inFlight[orderID] = struct{}{}
	s.inFlightMu.Unlock()

	go func() {
		select {
		case s.orderQueue <- orderID:
		case <-s.ctx.Done():
			s.done(orderID)
		}
	}()
	return true
}

func (s *Scheduler) done(orderID string) {
	s.inFlightMu.Lock()
	delete(s.inFlight, orderID)
	s.inFlightMu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case orderID := <-s.orderQueue:
			ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			if err := s.reconciler.ReconcileOrder(ctx, orderID); err != nil {
				s.logger.Warn("failed to reconcile order",
					zap.Int("worker", id),
					zap.String("order_id", orderID),
					zap.Error(err))
			}
			cancel()
			s.done(orderID)
		}
	}
}
