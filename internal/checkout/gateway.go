package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/BatmanBruc/image-credits/types"
)

var ErrMalformedResponse = errors.New("malformed gateway response")

type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID         string
	Amount     int64
	AmountPaid int64
	Currency   string
	Receipt    string
	Status     types.OrderStatus
	Notes      map[string]string
}

type Payment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
	Email   string `json:"email"`
}

func (p Payment) Captured() bool {
	return p.Status == "captured"
}

// PaymentResponse is what the checkout widget hands to its handler.
type PaymentResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

type Gateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	OrderPayments(ctx context.Context, orderID string) ([]Payment, error)
	VerifyPayment(resp PaymentResponse) bool
	VerifyWebhook(body []byte, signature string) bool
}

type WebhookEvent struct {
	Event   string
	Payment *Payment
	OrderID string
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var raw struct {
		Event   string `json:"event"`
		Payload struct {
			Payment *struct {
				Entity Payment `json:"entity"`
			} `json:"payment"`
			Order *struct {
				Entity struct {
					ID string `json:"id"`
				} `json:"entity"`
			} `json:"order"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	ev := &WebhookEvent{Event: raw.Event}
	if raw.Payload.Payment != nil {
		p := raw.Payload.Payment.Entity
		ev.Payment = &p
		ev.OrderID = p.OrderID
	}
	if raw.Payload.Order != nil && raw.Payload.Order.Entity.ID != "" {
		ev.OrderID = raw.Payload.Order.Entity.ID
	}
	return ev, nil
}

func parseOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order id missing", ErrMalformedResponse)
	}
	o := &Order{
		ID:         id,
		Amount:     toInt64(body["amount"]),
		AmountPaid: toInt64(body["amount_paid"]),
		Notes:      toNotes(body["notes"]),
	}
	o.Currency, _ = body["currency"].(string)
	o.Receipt, _ = body["receipt"].(string)
	if status, ok := body["status"].(string); ok {
		o.Status = types.OrderStatus(status)
	}
	return o, nil
}

func parsePayments(body map[string]interface{}) []Payment {
	items, _ := body["items"].([]interface{})
	out := make([]Payment, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		p := Payment{Amount: toInt64(m["amount"])}
		p.ID, _ = m["id"].(string)
		p.OrderID, _ = m["order_id"].(string)
		p.Status, _ = m["status"].(string)
		p.Email, _ = m["email"].(string)
		if p.ID != "" {
			out = append(out, p)
		}
	}
	return out
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

// toNotes accepts both the object form and the empty-array form the API uses
// when an order has no notes.
func toNotes(v interface{}) map[string]string {
	out := map[string]string{}
	m, ok := v.(map[string]interface{})
	if !ok {
		return out
	}
	for k, val := range m {
		switch s := val.(type) {
		case string:
			out[k] = s
		case float64:
			out[k] = strconv.FormatInt(int64(s), 10)
		}
	}
	return out
}
