package handlers

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/codex-k8s/telegram-listener/internal/i18n"
	"github.com/codex-k8s/telegram-listener/internal/telegram/updates"
	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []telego.SendMessageParams
	err  error
}

func (s *fakeSender) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, *params)
	if s.err != nil {
		return nil, s.err
	}
	return &telego.Message{MessageID: len(s.sent)}, nil
}

func (s *fakeSender) messages() []telego.SendMessageParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]telego.SendMessageParams(nil), s.sent...)
}

func testHandler(t *testing.T, sender Sender) *Handler {
	t.Helper()
	messages, err := i18n.LoadAll()
	require.NoError(t, err)
	return NewHandler(sender, messages, "en", slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func messageUpdate(id int, text, lang string) telego.Update {
	return telego.Update{
		UpdateID: id,
		Message: &telego.Message{
			MessageID: id * 10,
			Chat:      telego.Chat{ID: 42, Type: "private"},
			From:      &telego.User{ID: 7, LanguageCode: lang},
			Text:      text,
		},
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text, command, args string
		ok                  bool
	}{
		{"/ping", "/ping", "", true},
		{"  /PING@my_bot  ", "/ping", "", true},
		{"/echo hello world", "/echo", "hello world", true},
		{"/echo@bot   spaced  ", "/echo", "spaced", true},
		{"hello", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		command, args, ok := parseCommand(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.command, command, tt.text)
		assert.Equal(t, tt.args, args, tt.text)
	}
}

func TestHandleUpdate_Commands(t *testing.T) {
	tests := []struct {
		name, text, lang, wantText, wantMode string
	}{
		{"ping", "/ping", "en", "*pong*", telego.ModeMarkdownV2},
		{"ping ru", "/ping", "ru-RU", "*понг*", telego.ModeMarkdownV2},
		{"start", "/start", "", "Hi! Send /ping and I will answer.", ""},
		{"echo", "/echo v1.0", "en", "`v1.0`", telego.ModeMarkdownV2},
		{"echo usage", "/echo", "en", "Usage: /echo <text>", ""},
		{"unknown", "/nope", "en", "Unknown command. Try /ping.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			h := testHandler(t, sender)

			h.HandleUpdate(context.Background(), messageUpdate(1, tt.text, tt.lang))

			sent := sender.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantText, sent[0].Text)
			assert.Equal(t, tt.wantMode, sent[0].ParseMode)
			assert.Equal(t, int64(42), sent[0].ChatID.ID)
			require.NotNil(t, sent[0].ReplyParameters)
			assert.Equal(t, 10, sent[0].ReplyParameters.MessageID)
		})
	}
}

func TestHandleUpdate_IgnoresNonCommands(t *testing.T) {
	sender := &fakeSender{}
	h := testHandler(t, sender)

	h.HandleUpdate(context.Background(), messageUpdate(1, "just chatting", "en"))
	h.HandleUpdate(context.Background(), telego.Update{UpdateID: 2})

	assert.Empty(t, sender.messages())
}

func TestHandleUpdate_SendErrorIsLogged(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	h := testHandler(t, sender)

	assert.NotPanics(t, func() {
		h.HandleUpdate(context.Background(), messageUpdate(1, "/ping", "en"))
	})
	assert.Len(t, sender.messages(), 1)
}

// sliceListener yields items and then blocks until stopped.
type sliceListener struct {
	items []telego.Update
	errs  []error
	stop  *stopOnce
}

func newSliceListener() *sliceListener {
	return &sliceListener{stop: &stopOnce{ch: make(chan struct{})}}
}

func (l *sliceListener) Updates() iter.Seq2[telego.Update, error] {
	return func(yield func(telego.Update, error) bool) {
		for _, err := range l.errs {
			if !yield(telego.Update{}, err) {
				return
			}
		}
		for _, item := range l.items {
			if !yield(item, nil) {
				return
			}
		}
		<-l.stop.ch
	}
}

func (l *sliceListener) StopToken() updates.StopToken { return l.stop }

func (l *sliceListener) HintAllowedUpdates([]string) {}

func (l *sliceListener) TimeoutHint() (time.Duration, bool) { return 0, false }

type stopOnce struct {
	once sync.Once
	ch   chan struct{}
}

func (s *stopOnce) Stop() { s.once.Do(func() { close(s.ch) }) }

func (s *stopOnce) Stopped() <-chan struct{} { return s.ch }

func TestRun_ProcessesUntilContextCanceled(t *testing.T) {
	sender := &fakeSender{}
	h := testHandler(t, sender)
	listener := newSliceListener()
	listener.errs = []error{errors.New("transient")}
	listener.items = []telego.Update{
		messageUpdate(1, "/ping", "en"),
		messageUpdate(2, "/echo hi", "en"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Run(ctx, listener)
	}()

	require.Eventually(t, func() bool { return len(sender.messages()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	select {
	case <-listener.StopToken().Stopped():
	default:
		t.Fatal("listener was not stopped")
	}
}
