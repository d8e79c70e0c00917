package checkout

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

type RazorpayGateway struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayGateway(keyID, keySecret, webhookSecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:        razorpay.NewClient(keyID, keySecret),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return parseOrder(body)
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	return parseOrder(body)
}

func (g *RazorpayGateway) OrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := g.client.Order.Payments(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("order payments %s: %w", orderID, err)
	}
	return parsePayments(body), nil
}

func (g *RazorpayGateway) VerifyPayment(resp PaymentResponse) bool {
	if resp.PaymentID == "" || resp.OrderID == "" || resp.Signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   resp.OrderID,
		"razorpay_payment_id": resp.PaymentID,
	}
	return utils.VerifyPaymentSignature(params, resp.Signature, g.keySecret)
}

func (g *RazorpayGateway) VerifyWebhook(body []byte, signature string) bool {
	if g.webhookSecret == "" || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret)
}
