package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/contextkeys"
	"github.com/BatmanBruc/image-credits/internal/pricing"
	"github.com/BatmanBruc/image-credits/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/credits.html"))

type pageData struct {
	SignedIn    bool
	Email       string
	HasBalance  bool
	Balance     int64
	Type        types.CreditType
	MinAmount   int64
	ScriptURL   string
	ScriptReady bool
}

func (h *Handlers) CreditsPage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Type:      types.CreditTypeImage,
		MinAmount: pricing.MinAmountINR,
	}
	if h.script != nil {
		data.ScriptURL = h.script.ScriptURL()
		data.ScriptReady = h.script.Ready()
	}

	if user, ok := contextkeys.GetUser(r.Context()); ok {
		data.SignedIn = true
		data.Email = user.Email
		balance, err := h.svc.LoadBalance(r.Context(), user)
		if err != nil {
			h.logger.Warn("rendering credits page without balance", zap.String("email", user.Email), zap.Error(err))
		} else {
			data.HasBalance = true
			data.Balance = balance
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render credits page", zap.Error(err))
	}
}
