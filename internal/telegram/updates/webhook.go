package updates

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	httpapi "github.com/codex-k8s/telegram-listener/internal/http"
	"github.com/codex-k8s/telegram-listener/internal/queue"
	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

const (
	secretHeader           = "X-Telegram-Bot-Api-Secret-Token"
	defaultMaxBodySize     = 1 << 20
	defaultShutdownTimeout = 10 * time.Second
)

var errTrailingData = errors.New("unexpected data after update")

// Registrar sets the webhook URL upstream. *telego.Bot implements it.
type Registrar interface {
	SetWebhook(ctx context.Context, params *telego.SetWebhookParams) error
}

type result struct {
	update telego.Update
	err    error
}

// Webhook delivers Telegram updates pushed to an HTTP endpoint.
type Webhook struct {
	cfg    HTTPConfig
	server *httpapi.Server
	queue  *queue.Unbounded[result]
	stop   *signalStop
	done   chan struct{}
	addr   net.Addr
	log    *slog.Logger

	secret          string
	allowedUpdates  []string
	maxBodySize     int64
	limiter         *rate.Limiter
	shutdownTimeout time.Duration
}

var _ Listener = (*Webhook)(nil)

// WebhookOption configures the Webhook.
type WebhookOption func(*Webhook)

// WithSecretToken requires Telegram to send token in the secret header.
func WithSecretToken(token string) WebhookOption {
	return func(w *Webhook) {
		w.secret = token
	}
}

// WithAllowedUpdates restricts the update kinds registered upstream.
func WithAllowedUpdates(kinds []string) WebhookOption {
	return func(w *Webhook) {
		w.allowedUpdates = slices.Clone(kinds)
	}
}

// WithMaxBodySize caps the size of a single update request.
func WithMaxBodySize(size int64) WebhookOption {
	return func(w *Webhook) {
		if size > 0 {
			w.maxBodySize = size
		}
	}
}

// WithRateLimit limits accepted update requests. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) WebhookOption {
	return func(w *Webhook) {
		if rps <= 0 {
			w.limiter = nil
			return
		}
		w.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithShutdownTimeout bounds how long in-flight requests may drain.
func WithShutdownTimeout(timeout time.Duration) WebhookOption {
	return func(w *Webhook) {
		if timeout > 0 {
			w.shutdownTimeout = timeout
		}
	}
}

// StartWebhook binds cfg.Addr, registers the webhook upstream and starts
// serving it. The server runs until the stop token fires or ctx is
// canceled. Bind and registration failures are returned before anything is
// left running.
func StartWebhook(ctx context.Context, registrar Registrar, cfg HTTPConfig, log *slog.Logger, opts ...WebhookOption) (*Webhook, error) {
	w := &Webhook{
		cfg:             cfg,
		stop:            newSignalStop(),
		done:            make(chan struct{}),
		log:             log,
		maxBodySize:     defaultMaxBodySize,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}

	log.Info("Starting webhook listener")
	// Bind before registering so a busy port never leaves a dangling
	// webhook upstream.
	ln, err := net.Listen("tcp", cfg.Addr.String())
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrBind, cfg.Addr, err)
	}
	w.addr = ln.Addr()

	params := &telego.SetWebhookParams{
		URL:            cfg.FullURL(),
		SecretToken:    w.secret,
		AllowedUpdates: w.allowedUpdates,
	}
	if err := registrar.SetWebhook(ctx, params); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrRegisterWebhook, params.URL, err)
	}

	w.queue = queue.NewUnbounded[result]()
	w.server = httpapi.New(cfg.Addr.String(), log)
	w.server.Handle(http.MethodPost, cfg.RoutePath(), &webhookHandler{
		queue:       w.queue,
		secret:      w.secret,
		maxBodySize: w.maxBodySize,
		limiter:     w.limiter,
		log:         log,
	})
	w.server.OnShutdown(w.stop.markStopped)

	serveErr := make(chan error, 1)
	go func() { serveErr <- w.server.Serve(ln) }()
	go w.run(ctx, serveErr)

	w.server.SetReady(true)
	log.Info("Webhook listening for updates",
		"base_url", cfg.BaseURL.String(),
		"path", cfg.RoutePath(),
		"addr", w.addr.String(),
	)
	return w, nil
}

func (w *Webhook) run(ctx context.Context, serveErr <-chan error) {
	defer close(w.done)
	defer w.queue.Close()

	select {
	case <-w.stop.signal:
		w.log.Info("Webhook stop requested")
	case <-ctx.Done():
		w.log.Info("Webhook context canceled", "error", ctx.Err())
	case err := <-serveErr:
		w.stop.markStopped()
		if err != nil {
			w.log.Error("Webhook server stopped unexpectedly", "error", err)
			_ = w.queue.Push(result{err: fmt.Errorf("%w: %w", ErrServer, err)})
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()
	if err := w.server.Shutdown(shutdownCtx); err != nil {
		w.log.Error("Webhook graceful shutdown failed", "error", err)
	}
	w.stop.markStopped()
	if err := <-serveErr; err != nil {
		w.log.Error("Webhook server stopped with error", "error", err)
	}
	w.log.Info("Webhook server stopped")
}

// Updates yields queued updates until the server has stopped and the queue
// is drained.
func (w *Webhook) Updates() iter.Seq2[telego.Update, error] {
	return func(yield func(telego.Update, error) bool) {
		for {
			item, ok := w.queue.Pop(context.Background())
			if !ok {
				return
			}
			if !yield(item.update, item.err) {
				return
			}
		}
	}
}

// StopToken returns a token that gracefully shuts the server down.
func (w *Webhook) StopToken() StopToken {
	return w.stop
}

// HintAllowedUpdates is ignored: allowed updates are fixed at registration.
func (w *Webhook) HintAllowedUpdates([]string) {}

// TimeoutHint reports no timeout: updates are pushed.
func (w *Webhook) TimeoutHint() (time.Duration, bool) {
	return 0, false
}

// Addr returns the address the server is bound to.
func (w *Webhook) Addr() net.Addr {
	return w.addr
}

// URL returns the URL registered upstream.
func (w *Webhook) URL() string {
	return w.cfg.FullURL()
}

// Done is closed once the server has fully exited and the queue is closed.
func (w *Webhook) Done() <-chan struct{} {
	return w.done
}

// webhookHandler accepts one update per POST request.
type webhookHandler struct {
	queue       *queue.Unbounded[result]
	secret      string
	maxBodySize int64
	limiter     *rate.Limiter
	log         *slog.Logger
}

func (h *webhookHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow() {
		h.fail(rw, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}
	if h.secret != "" {
		secret := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
			h.log.Warn("Webhook secret mismatch")
			h.fail(rw, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	r.Body = http.MaxBytesReader(rw, r.Body, h.maxBodySize)
	defer r.Body.Close()

	update, err := decodeUpdate(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(rw, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.log.Error("Failed to decode webhook update", "error", err)
		h.fail(rw, "invalid update payload", http.StatusBadRequest)
		return
	}
	if update.UpdateID <= 0 {
		h.fail(rw, "update_id is required", http.StatusBadRequest)
		return
	}

	if err := h.queue.Push(result{update: update}); err != nil {
		h.log.Error("Webhook update dropped: consumer closed", "update_id", update.UpdateID, "error", err)
		h.fail(rw, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	h.log.Debug("Received update", "update_id", update.UpdateID)
	rw.WriteHeader(http.StatusOK)
}

// decodeUpdate reads exactly one JSON value from body.
func decodeUpdate(body io.Reader) (telego.Update, error) {
	var update telego.Update
	dec := json.NewDecoder(body)
	if err := dec.Decode(&update); err != nil {
		return telego.Update{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return telego.Update{}, err
	}
	return update, nil
}

func (h *webhookHandler) fail(rw http.ResponseWriter, msg string, code int) {
	http.Error(rw, msg, code)
}
