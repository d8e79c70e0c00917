package recharge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BatmanBruc/image-credits/internal/checkout"
	"github.com/BatmanBruc/image-credits/store"
	"github.com/BatmanBruc/image-credits/types"
)

type fakeBilling struct {
	mu       sync.Mutex
	balances map[string]int64
	txs      []types.CreditTransaction
	seen     map[string]bool
	applyErr error
	getErr   error
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{balances: map[string]int64{}, seen: map[string]bool{}}
}

func (b *fakeBilling) GetBalance(_ context.Context, email string) (int64, error) {
	if b.getErr != nil {
		return 0, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[email]
	if !ok {
		return 0, store.ErrNotFound
	}
	return bal, nil
}

func (b *fakeBilling) ApplyRecharge(_ context.Context, t types.CreditTransaction) (int64, bool, error) {
	if b.applyErr != nil {
		return 0, false, b.applyErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seen[t.PaymentID] {
		return b.balances[t.Email], false, nil
	}
	b.seen[t.PaymentID] = true
	b.txs = append(b.txs, t)
	b.balances[t.Email] += t.Credits
	return b.balances[t.Email], true, nil
}

func (b *fakeBilling) ListTransactions(_ context.Context, email string, _ int) ([]types.CreditTransaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.CreditTransaction
	for _, t := range b.txs {
		if t.Email == email {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]*types.RechargeOrder
	saveErr error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*types.RechargeOrder{}}
}

func (o *fakeOrders) SaveOrder(_ context.Context, order *types.RechargeOrder) error {
	if o.saveErr != nil {
		return o.saveErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := *order
	o.orders[order.ID] = &cp
	return nil
}

func (o *fakeOrders) GetOrder(_ context.Context, id string) (*types.RechargeOrder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (o *fakeOrders) DeleteOrder(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.orders, id)
	return nil
}

func (o *fakeOrders) ListPendingOrders(_ context.Context) ([]*types.RechargeOrder, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*types.RechargeOrder
	for _, order := range o.orders {
		out = append(out, order)
	}
	return out, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return func() {}, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	created   []checkout.OrderRequest
	orders    map[string]*checkout.Order
	payments  map[string][]checkout.Payment
	createErr error
	validSig  string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orders:   map[string]*checkout.Order{},
		payments: map[string][]checkout.Payment{},
		validSig: "good",
	}
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

func (g *fakeGateway) CreateOrder(_ context.Context, req checkout.OrderRequest) (*checkout.Order, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created = append(g.created, req)
	order := &checkout.Order{
		ID:       "order_" + req.Receipt[:8],
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   types.OrderStatusCreated,
		Notes:    req.Notes,
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, id string) (*checkout.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[id]
	if !ok {
		return nil, errors.New("order not found at gateway")
	}
	cp := *order
	return &cp, nil
}

func (g *fakeGateway) OrderPayments(_ context.Context, id string) ([]checkout.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payments[id], nil
}

func (g *fakeGateway) VerifyPayment(resp checkout.PaymentResponse) bool {
	return resp.Signature == g.validSig
}

func (g *fakeGateway) VerifyWebhook(_ []byte, signature string) bool {
	return signature == g.validSig
}

func (g *fakeGateway) markPaid(orderID, paymentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID].Status = types.OrderStatusPaid
	g.payments[orderID] = []checkout.Payment{
		{ID: "pay_failed", OrderID: orderID, Status: "failed"},
		{ID: paymentID, OrderID: orderID, Status: "captured"},
	}
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }
