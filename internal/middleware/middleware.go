package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/auth"
	"github.com/BatmanBruc/image-credits/internal/contextkeys"
	"github.com/BatmanBruc/image-credits/internal/metrics"
	"github.com/BatmanBruc/image-credits/store"
	"github.com/BatmanBruc/image-credits/types"
)

const AccessTokenCookie = "access_token"

var errNoToken = errors.New("no access token")

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Logger logs one line per request once the handler returns.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			if reqID != "" {
				r = r.WithContext(contextkeys.WithRequestID(r.Context(), reqID))
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

type Auth struct {
	tokens TokenValidator
	users  types.UserStore
	logger *zap.Logger
}

func NewAuth(tokens TokenValidator, users types.UserStore, logger *zap.Logger) *Auth {
	return &Auth{tokens: tokens, users: users, logger: logger}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (a *Auth) resolve(r *http.Request) (*http.Request, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return r, errNoToken
	}
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		a.logger.Debug("rejected access token", zap.Error(err))
		return r, err
	}

	user := types.User{ID: claims.Subject, Email: claims.Email}
	if err := a.users.UpsertUser(r.Context(), user); err != nil {
		metrics.Failures.WithLabelValues(metrics.StageAuth).Inc()
		if errors.Is(err, store.ErrEmailTaken) {
			a.logger.Warn("token subject does not own its email",
				zap.String("user_id", user.ID),
				zap.String("email", user.Email))
		} else {
			a.logger.Error("failed to upsert user", zap.String("email", user.Email), zap.Error(err))
		}
		return r, err
	}
	return r.WithContext(contextkeys.WithUser(r.Context(), user)), nil
}

// Optional attaches the user when a valid token is present and never rejects.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = a.resolve(r)
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := a.resolve(r)
		if err != nil {
			status, message := http.StatusUnauthorized, "user not authenticated"
			if errors.Is(err, store.ErrEmailTaken) {
				status, message = http.StatusForbidden, store.ErrEmailTaken.Error()
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": message,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
