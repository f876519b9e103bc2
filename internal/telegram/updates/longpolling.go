package updates

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mymmrac/telego"
)

// DefaultPollTimeout is the getUpdates timeout used when none is configured.
const DefaultPollTimeout = 10 * time.Second

// Poller starts a long polling session. *telego.Bot implements it.
type Poller interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

// LongPolling delivers Telegram updates via long polling.
type LongPolling struct {
	poller Poller
	log    *slog.Logger

	mu     sync.Mutex
	params telego.GetUpdatesParams

	ctx  context.Context
	stop cancelStop
}

var _ Listener = (*LongPolling)(nil)

// PollingOption configures LongPolling.
type PollingOption func(*LongPolling)

// WithPollTimeout sets the getUpdates timeout. Telegram takes whole
// seconds, so the value is truncated; under one second keeps the default.
func WithPollTimeout(timeout time.Duration) PollingOption {
	return func(l *LongPolling) {
		if timeout >= time.Second {
			l.params.Timeout = int(timeout / time.Second)
		}
	}
}

// WithPollAllowedUpdates restricts the update kinds Telegram sends.
func WithPollAllowedUpdates(kinds []string) PollingOption {
	return func(l *LongPolling) {
		l.params.AllowedUpdates = slices.Clone(kinds)
	}
}

// NewLongPolling creates a new long polling source. It stops when ctx is
// canceled or its stop token fires.
func NewLongPolling(ctx context.Context, poller Poller, log *slog.Logger, opts ...PollingOption) *LongPolling {
	stopCtx, cancel := context.WithCancel(ctx)
	l := &LongPolling{
		poller: poller,
		log:    log,
		params: telego.GetUpdatesParams{Timeout: int(DefaultPollTimeout / time.Second)},
		ctx:    stopCtx,
		stop:   cancelStop{cancel: cancel, done: stopCtx.Done()},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Updates starts a long polling session for the duration of the range loop.
// A failure to start is yielded once and ends the sequence.
func (l *LongPolling) Updates() iter.Seq2[telego.Update, error] {
	return func(yield func(telego.Update, error) bool) {
		if l.ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithCancel(l.ctx)
		defer cancel()

		params := l.snapshot()
		updates, err := l.poller.UpdatesViaLongPolling(ctx, &params)
		if err != nil {
			yield(telego.Update{}, fmt.Errorf("start long polling: %w", err))
			return
		}
		l.log.Info("Telegram updates started via long polling", "timeout", params.Timeout)

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !yield(update, nil) {
					return
				}
			}
		}
	}
}

// StopToken returns a token that cancels polling.
func (l *LongPolling) StopToken() StopToken {
	return l.stop
}

// HintAllowedUpdates applies kinds unless allowed updates were configured explicitly.
func (l *LongPolling) HintAllowedUpdates(kinds []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.params.AllowedUpdates) == 0 {
		l.params.AllowedUpdates = slices.Clone(kinds)
	}
}

// TimeoutHint returns the getUpdates timeout.
func (l *LongPolling) TimeoutHint() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.params.Timeout <= 0 {
		return 0, false
	}
	return time.Duration(l.params.Timeout) * time.Second, true
}

func (l *LongPolling) snapshot() telego.GetUpdatesParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	params := l.params
	params.AllowedUpdates = slices.Clone(l.params.AllowedUpdates)
	return params
}
