package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

func (h *Handlers) RazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), body, r.Header.Get("X-Razorpay-Signature")); err != nil {
		h.logger.Warn("failed to handle webhook", zap.Error(err))
		h.sendError(w, r, err)
		return
	}
	h.sendSuccess(w, http.StatusOK, "webhook processed", nil)
}
