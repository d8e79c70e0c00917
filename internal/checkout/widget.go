package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

// Widget is the checkout script the account page loads. It is acquired once
// per process and released on shutdown; Ready reports whether it may be used.
type Widget struct {
	scriptURL string
	client    *http.Client
	logger    *zap.Logger

	mu    sync.Mutex
	ready atomic.Bool
}

func NewWidget(scriptURL string, client *http.Client, logger *zap.Logger) *Widget {
	if scriptURL == "" {
		scriptURL = DefaultScriptURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Widget{scriptURL: scriptURL, client: client, logger: logger}
}

func (w *Widget) ScriptURL() string {
	return w.scriptURL
}

func (w *Widget) Ready() bool {
	return w.ready.Load()
}

func (w *Widget) Acquire(ctx context.Context) error {
	if w.ready.Load() {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready.Load() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.scriptURL, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("failed to load checkout script", zap.String("url", w.scriptURL), zap.Error(err))
		return fmt.Errorf("load checkout script: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		w.logger.Error("checkout script unavailable", zap.String("url", w.scriptURL), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("load checkout script: unexpected status %d", resp.StatusCode)
	}

	w.ready.Store(true)
	w.logger.Info("checkout script loaded", zap.String("url", w.scriptURL))
	return nil
}

func (w *Widget) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready.Store(false)
}
