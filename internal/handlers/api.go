package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/checkout"
	"github.com/BatmanBruc/image-credits/internal/contextkeys"
	"github.com/BatmanBruc/image-credits/internal/messages"
	"github.com/BatmanBruc/image-credits/internal/pricing"
	"github.com/BatmanBruc/image-credits/internal/recharge"
	"github.com/BatmanBruc/image-credits/types"
)

type quoteResponse struct {
	pricing.Quote
	Hint string `json:"hint"`
}

type checkoutRequest struct {
	Amount string           `json:"amount"`
	Type   types.CreditType `json:"type"`
}

func creditType(raw string) types.CreditType {
	if raw == "" {
		return types.CreditTypeImage
	}
	return types.CreditType(raw)
}

func (h *Handlers) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := contextkeys.GetUser(r.Context())
	if !ok {
		h.sendError(w, r, recharge.ErrUnauthenticated)
		return
	}
	balance, err := h.svc.LoadBalance(r.Context(), user)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, "balance loaded", map[string]interface{}{
		"type":   types.CreditTypeImage,
		"amount": balance,
	})
}

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote := h.svc.ComputeCredits(q.Get("amount"), creditType(q.Get("type")))
	resp := quoteResponse{Quote: quote, Hint: quote.Message}
	if resp.Hint == "" && quote.Numeric {
		resp.Hint = messages.WillReceive(quote.Credits, quote.Type)
	}
	h.sendSuccess(w, http.StatusOK, "quote computed", resp)
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := contextkeys.GetUser(r.Context())
	if !ok {
		h.sendError(w, r, recharge.ErrUnauthenticated)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode checkout request", zap.Error(err))
		h.sendError(w, r, recharge.ErrNothingToPay)
		return
	}

	opts, err := h.svc.InitiatePayment(r.Context(), user, req.Amount, creditType(string(req.Type)))
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendSuccess(w, http.StatusCreated, "checkout order created", opts)
}

func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	user, ok := contextkeys.GetUser(r.Context())
	if !ok {
		h.sendError(w, r, recharge.ErrUnauthenticated)
		return
	}

	var resp checkout.PaymentResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		h.logger.Warn("failed to decode payment response", zap.Error(err))
		h.sendError(w, r, recharge.ErrInvalidSignature)
		return
	}

	result, err := h.svc.HandlePaymentCallback(r.Context(), user, resp)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	message := "recharge applied"
	if !result.Applied {
		message = "payment already applied"
	}
	h.sendSuccess(w, http.StatusOK, message, result)
}

func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	user, ok := contextkeys.GetUser(r.Context())
	if !ok {
		h.sendError(w, r, recharge.ErrUnauthenticated)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.svc.Transactions(r.Context(), user, limit)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	if txs == nil {
		txs = []types.CreditTransaction{}
	}
	h.sendSuccess(w, http.StatusOK, "transactions loaded", txs)
}
