package updates_test

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codex-k8s/telegram-listener/internal/telegram/updates"
	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/require"
)

const receiveTimeout = 2 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func updatePayload(updateID int, text string) string {
	return fmt.Sprintf(
		`{"update_id":%d,"message":{"message_id":%d,"date":1700000000,"chat":{"id":42,"type":"private"},"text":%q}}`,
		updateID, updateID, text,
	)
}

// consume ranges seq in the background and forwards successful updates.
// The returned channel is closed when the sequence ends.
func consume(seq iter.Seq2[telego.Update, error]) <-chan telego.Update {
	out := make(chan telego.Update, 1024)
	go func() {
		defer close(out)
		for update, err := range seq {
			if err == nil {
				out <- update
			}
		}
	}()
	return out
}

func receive(t *testing.T, ch <-chan telego.Update) telego.Update {
	t.Helper()
	select {
	case update, ok := <-ch:
		require.True(t, ok, "update sequence ended early")
		return update
	case <-time.After(receiveTimeout):
		t.Fatal("timed out waiting for update")
		return telego.Update{}
	}
}

func requireEnded(t *testing.T, ch <-chan telego.Update) {
	t.Helper()
	deadline := time.After(receiveTimeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("update sequence did not end")
		}
	}
}

func requireClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(receiveTimeout):
		t.Fatalf("%s was not closed", what)
	}
}

// fakePoller hands out a fixed batch of updates per session and keeps the
// channel open until the session context is canceled, like telego does.
type fakePoller struct {
	mu       sync.Mutex
	updates  []telego.Update
	err      error
	params   []telego.GetUpdatesParams
	sessions []context.Context
}

func (p *fakePoller) UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, _ ...telego.LongPollingOption) (<-chan telego.Update, error) {
	p.mu.Lock()
	p.params = append(p.params, *params)
	p.sessions = append(p.sessions, ctx)
	batch := p.updates
	err := p.err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	ch := make(chan telego.Update)
	go func() {
		defer close(ch)
		for _, update := range batch {
			select {
			case ch <- update:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch, nil
}

func (p *fakePoller) lastParams() telego.GetUpdatesParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[len(p.params)-1]
}

func (p *fakePoller) lastSession() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[len(p.sessions)-1]
}

type fakeRegistrar struct {
	mu     sync.Mutex
	err    error
	params []telego.SetWebhookParams
}

func (r *fakeRegistrar) SetWebhook(_ context.Context, params *telego.SetWebhookParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, *params)
	return r.err
}

func (r *fakeRegistrar) calls() []telego.SetWebhookParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]telego.SetWebhookParams(nil), r.params...)
}

// fakeListener yields a fixed list of items and records hints.
type fakeListener struct {
	items   []telego.Update
	err     error
	token   *fakeStop
	hints   [][]string
	timeout time.Duration
}

func newFakeListener(ids ...int) *fakeListener {
	l := &fakeListener{token: &fakeStop{stopped: make(chan struct{})}}
	for _, id := range ids {
		l.items = append(l.items, telego.Update{UpdateID: id})
	}
	return l
}

func (l *fakeListener) Updates() iter.Seq2[telego.Update, error] {
	return func(yield func(telego.Update, error) bool) {
		for _, item := range l.items {
			if !yield(item, nil) {
				return
			}
		}
		if l.err != nil {
			yield(telego.Update{}, l.err)
		}
	}
}

func (l *fakeListener) StopToken() updates.StopToken { return l.token }

func (l *fakeListener) HintAllowedUpdates(kinds []string) { l.hints = append(l.hints, kinds) }

func (l *fakeListener) TimeoutHint() (time.Duration, bool) { return l.timeout, l.timeout > 0 }

type fakeStop struct {
	once    sync.Once
	calls   atomic.Int32
	stopped chan struct{}
}

func (s *fakeStop) Stop() {
	s.calls.Add(1)
	s.once.Do(func() { close(s.stopped) })
}

func (s *fakeStop) Stopped() <-chan struct{} { return s.stopped }
