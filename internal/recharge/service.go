package recharge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BatmanBruc/image-credits/internal/checkout"
	"github.com/BatmanBruc/image-credits/internal/messages"
	"github.com/BatmanBruc/image-credits/internal/metrics"
	"github.com/BatmanBruc/image-credits/internal/notify"
	"github.com/BatmanBruc/image-credits/internal/pricing"
	"github.com/BatmanBruc/image-credits/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gatewayTimeout = 10 * time.Second
	paymentLockTTL = 30 * time.Second
)

type ReadyChecker interface {
	Ready() bool
}

type Prefill struct {
	Email string `json:"email"`
}

// CheckoutOptions is everything the page passes to the checkout widget.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Credits     int64   `json:"credits"`
	Prefill     Prefill `json:"prefill"`
}

type Result struct {
	Balance      int64 `json:"balance"`
	CreditsAdded int64 `json:"credits_added"`
	Applied      bool  `json:"applied"`
}

type Deps struct {
	Billing  types.BillingStore
	Orders   types.OrderStore
	Locker   types.Locker
	Gateway  checkout.Gateway
	Widget   ReadyChecker
	Notifier notify.Listener
	Logger   *zap.Logger
}

type Service struct {
	billing  types.BillingStore
	orders   types.OrderStore
	locker   types.Locker
	gateway  checkout.Gateway
	widget   ReadyChecker
	notifier notify.Listener
	logger   *zap.Logger
}

func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notify.Fanout{}
	}
	return &Service{
		billing:  d.Billing,
		orders:   d.Orders,
		locker:   d.Locker,
		gateway:  d.Gateway,
		widget:   d.Widget,
		notifier: notifier,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) LoadBalance(ctx context.Context, user types.User) (int64, error) {
	if normalizeEmail(user.Email) == "" {
		return 0, ErrUnauthenticated
	}
	balance, err := s.billing.GetBalance(ctx, user.Email)
	if err != nil {
		metrics.Failures.WithLabelValues(metrics.StageBalance).Inc()
		s.logger.Error("error fetching user credits", zap.String("email", user.Email), zap.Error(err))
		return 0, fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
	}
	return balance, nil
}

func (s *Service) ComputeCredits(rawAmount string, creditType types.CreditType) pricing.Quote {
	return pricing.QuoteFor(rawAmount, creditType)
}

func (s *Service) InitiatePayment(ctx context.Context, user types.User, rawAmount string, creditType types.CreditType) (*CheckoutOptions, error) {
	if s.widget == nil || !s.widget.Ready() {
		metrics.Failures.WithLabelValues(metrics.StageCheckout).Inc()
		s.logger.Warn("checkout requested before widget was ready")
		return nil, ErrCheckoutNotReady
	}
	email := normalizeEmail(user.Email)
	if email == "" {
		return nil, ErrUnauthenticated
	}

	amount, ok := pricing.ParseAmount(rawAmount)
	if !ok || amount <= 0 {
		return nil, ErrNothingToPay
	}
	credits, err := pricing.Credits(creditType, amount)
	if err != nil || credits <= 0 {
		return nil, ErrNothingToPay
	}

	receipt := uuid.New().String()
	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	order, err := s.gateway.CreateOrder(gctx, checkout.OrderRequest{
		Amount:   pricing.MinorUnits(amount),
		Currency: pricing.Currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"user_id": user.ID,
			"email":   email,
			"amount":  strconv.FormatInt(amount, 10),
			"credits": strconv.FormatInt(credits, 10),
			"type":    string(creditType),
		},
	})
	if err != nil {
		metrics.Failures.WithLabelValues(metrics.StageCheckout).Inc()
		s.logger.Error("failed to create checkout order", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("create checkout order: %w", err)
	}

	pending := &types.RechargeOrder{
		ID:      order.ID,
		Receipt: receipt,
		UserID:  user.ID,
		Email:   email,
		Amount:  amount,
		Credits: credits,
		Type:    creditType,
		Status:  types.OrderStatusCreated,
	}
	if err := s.orders.SaveOrder(ctx, pending); err != nil {
		// the order notes still carry everything needed to apply the payment
		s.logger.Warn("failed to store pending order", zap.String("order_id", order.ID), zap.Error(err))
	}

	metrics.CheckoutsStarted.WithLabelValues(string(creditType)).Inc()
	s.logger.Info("checkout order created",
		zap.String("order_id", order.ID),
		zap.String("email", email),
		zap.Int64("amount", amount),
		zap.Int64("credits", credits))

	return &CheckoutOptions{
		Key:         s.gateway.KeyID(),
		Amount:      pricing.MinorUnits(amount),
		Currency:    pricing.Currency,
		Name:        messages.CheckoutName,
		Description: messages.CheckoutDescription(credits, creditType),
		OrderID:     order.ID,
		Credits:     credits,
		Prefill:     Prefill{Email: email},
	}, nil
}

func (s *Service) HandlePaymentCallback(ctx context.Context, user types.User, resp checkout.PaymentResponse) (*Result, error) {
	email := normalizeEmail(user.Email)
	if email == "" {
		metrics.Failures.WithLabelValues(metrics.StageAuth).Inc()
		return nil, ErrUnauthenticated
	}
	if !s.gateway.VerifyPayment(resp) {
		s.logger.Warn("payment signature rejected",
			zap.String("order_id", resp.OrderID),
			zap.String("payment_id", resp.PaymentID))
		return nil, ErrInvalidSignature
	}

	order, err := s.resolveOrder(ctx, resp.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Email != email {
		return nil, ErrOrderMismatch
	}
	if order.UserID == "" {
		order.UserID = user.ID
	}
	if order.Credits <= 0 {
		return nil, ErrNothingToPay
	}

	return s.apply(ctx, order, resp.PaymentID, "callback")
}

func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhook(body, signature) {
		return ErrInvalidSignature
	}
	ev, err := checkout.ParseWebhookEvent(body)
	if err != nil {
		return err
	}

	switch ev.Event {
	case "payment.captured", "order.paid":
	default:
		s.logger.Debug("ignoring webhook event", zap.String("event", ev.Event))
		return nil
	}
	if ev.Payment == nil || !ev.Payment.Captured() || ev.OrderID == "" {
		return nil
	}

	order, err := s.resolveOrder(ctx, ev.OrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			s.logger.Info("webhook for unknown order", zap.String("order_id", ev.OrderID))
			return nil
		}
		return err
	}
	_, err = s.apply(ctx, order, ev.Payment.ID, "webhook")
	if errors.Is(err, ErrPaymentInProgress) {
		return nil
	}
	return err
}

// ReconcileOrder applies a pending order the browser never reported back on.
func (s *Service) ReconcileOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOrderNotFound, err)
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	remote, err := s.gateway.FetchOrder(gctx, orderID)
	if err != nil {
		return err
	}
	if remote.Status != types.OrderStatusPaid {
		if !order.ExpiresAt.IsZero() && time.Now().After(order.ExpiresAt) {
			s.logger.Info("dropping expired order", zap.String("order_id", orderID))
			return s.orders.DeleteOrder(ctx, orderID)
		}
		return nil
	}

	payments, err := s.gateway.OrderPayments(gctx, orderID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if !p.Captured() {
			continue
		}
		_, err := s.apply(ctx, order, p.ID, "reconcile")
		if errors.Is(err, ErrPaymentInProgress) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) Transactions(ctx context.Context, user types.User, limit int) ([]types.CreditTransaction, error) {
	if normalizeEmail(user.Email) == "" {
		return nil, ErrUnauthenticated
	}
	return s.billing.ListTransactions(ctx, user.Email, limit)
}

func (s *Service) resolveOrder(ctx context.Context, orderID string) (*types.RechargeOrder, error) {
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err == nil {
		return order, nil
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	remote, gerr := s.gateway.FetchOrder(gctx, orderID)
	if gerr != nil {
		metrics.Failures.WithLabelValues(metrics.StageOrder).Inc()
		s.logger.Error("failed to resolve order", zap.String("order_id", orderID), zap.Error(gerr))
		return nil, fmt.Errorf("%w: %w", ErrOrderNotFound, gerr)
	}
	order = orderFromNotes(remote)
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func orderFromNotes(o *checkout.Order) *types.RechargeOrder {
	email := normalizeEmail(o.Notes["email"])
	amount, aerr := strconv.ParseInt(o.Notes["amount"], 10, 64)
	credits, cerr := strconv.ParseInt(o.Notes["credits"], 10, 64)
	if email == "" || aerr != nil || cerr != nil {
		return nil
	}
	creditType := types.CreditType(o.Notes["type"])
	if creditType == "" {
		creditType = types.CreditTypeImage
	}
	// never trust notes over the priced amount
	if expected, err := pricing.Credits(creditType, amount); err != nil || expected != credits {
		return nil
	}
	return &types.RechargeOrder{
		ID:      o.ID,
		Receipt: o.Receipt,
		UserID:  o.Notes["user_id"],
		Email:   email,
		Amount:  amount,
		Credits: credits,
		Type:    creditType,
		Status:  o.Status,
	}
}

func (s *Service) apply(ctx context.Context, order *types.RechargeOrder, paymentID, source string) (*Result, error) {
	release, ok, err := s.locker.Acquire(ctx, "payment:"+paymentID, paymentLockTTL)
	if err != nil {
		s.logger.Warn("payment lock unavailable, relying on database guard", zap.String("payment_id", paymentID), zap.Error(err))
	} else if !ok {
		return nil, ErrPaymentInProgress
	}
	if release != nil {
		defer release()
	}

	balance, applied, err := s.billing.ApplyRecharge(ctx, types.CreditTransaction{
		UserID:          order.UserID,
		Email:           order.Email,
		Amount:          order.Amount,
		Credits:         order.Credits,
		TransactionType: order.Type,
		PaymentID:       paymentID,
		OrderID:         order.ID,
	})
	if err != nil {
		metrics.Failures.WithLabelValues(metrics.StageApply).Inc()
		s.logger.Error("error applying recharge",
			zap.String("order_id", order.ID),
			zap.String("payment_id", paymentID),
			zap.String("source", source),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}

	if err := s.orders.DeleteOrder(ctx, order.ID); err != nil {
		s.logger.Warn("failed to drop pending order", zap.String("order_id", order.ID), zap.Error(err))
	}

	if !applied {
		metrics.RechargesDuplicate.Inc()
		s.logger.Info("payment already applied", zap.String("payment_id", paymentID), zap.String("source", source))
		return &Result{Balance: balance}, nil
	}

	metrics.RechargesApplied.WithLabelValues(source).Inc()
	metrics.CreditsApplied.WithLabelValues(string(order.Type)).Add(float64(order.Credits))
	s.logger.Info("transaction saved successfully",
		zap.String("order_id", order.ID),
		zap.String("payment_id", paymentID),
		zap.String("email", order.Email),
		zap.Int64("credits", order.Credits),
		zap.Int64("balance", balance),
		zap.String("source", source))

	update := types.BalanceUpdate{
		UserID:       order.UserID,
		Email:        order.Email,
		Type:         order.Type,
		Balance:      balance,
		CreditsAdded: order.Credits,
		Amount:       order.Amount,
		PaymentID:    paymentID,
	}
	if err := s.notifier.BalanceChanged(ctx, update); err != nil {
		metrics.Failures.WithLabelValues(metrics.StageNotify).Inc()
		s.logger.Warn("balance listeners failed", zap.String("email", order.Email), zap.Error(err))
	}

	return &Result{Balance: balance, CreditsAdded: order.Credits, Applied: true}, nil
}
