package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/checkout"
	"github.com/BatmanBruc/image-credits/internal/contextkeys"
	"github.com/BatmanBruc/image-credits/internal/pricing"
	"github.com/BatmanBruc/image-credits/internal/recharge"
	"github.com/BatmanBruc/image-credits/types"
)

type RechargeService interface {
	LoadBalance(ctx context.Context, user types.User) (int64, error)
	ComputeCredits(rawAmount string, creditType types.CreditType) pricing.Quote
	InitiatePayment(ctx context.Context, user types.User, rawAmount string, creditType types.CreditType) (*recharge.CheckoutOptions, error)
	HandlePaymentCallback(ctx context.Context, user types.User, resp checkout.PaymentResponse) (*recharge.Result, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Transactions(ctx context.Context, user types.User, limit int) ([]types.CreditTransaction, error)
}

type BalanceSubscriber interface {
	Subscribe(ctx context.Context, email string) (<-chan types.BalanceUpdate, error)
}

type ScriptSource interface {
	ScriptURL() string
	Ready() bool
}

type Handlers struct {
	svc    RechargeService
	events BalanceSubscriber
	script ScriptSource
	logger *zap.Logger
}

func NewHandlers(svc RechargeService, events BalanceSubscriber, script ScriptSource, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		svc:    svc,
		events: events,
		script: script,
		logger: logger,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, recharge.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, recharge.ErrCheckoutNotReady), errors.Is(err, recharge.ErrBalanceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, recharge.ErrNothingToPay), errors.Is(err, recharge.ErrInvalidSignature),
		errors.Is(err, checkout.ErrMalformedResponse):
		return http.StatusBadRequest
	case errors.Is(err, recharge.ErrOrderMismatch):
		return http.StatusForbidden
	case errors.Is(err, recharge.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, recharge.ErrPaymentInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) sendSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func (h *Handlers) sendError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = "internal error"
		reqID, _ := contextkeys.GetRequestID(r.Context())
		h.logger.Error("request failed",
			zap.String("request_id", reqID),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}
