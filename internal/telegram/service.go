package telegram

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codex-k8s/telegram-listener/internal/config"
	"github.com/codex-k8s/telegram-listener/internal/i18n"
	"github.com/codex-k8s/telegram-listener/internal/telegram/handlers"
	"github.com/mymmrac/telego"
)

var errNotStarted = errors.New("telegram: service not started")

// Service manages Telegram bot lifecycle.
type Service struct {
	bot      Bot
	cfg      config.Config
	handler  *handlers.Handler
	listener *Listener
	done     chan struct{}
	log      *slog.Logger
}

// New creates a new Telegram service.
func New(cfg config.Config, bundle i18n.Bundle, log *slog.Logger) (*Service, error) {
	bot, err := telego.NewBot(cfg.Token, telego.WithLogger(newTelegoLogger(log)))
	if err != nil {
		return nil, err
	}

	messages, err := i18n.LoadAll()
	if err != nil {
		return nil, err
	}
	messages[bundle.Lang] = bundle.Messages

	return NewWithBot(bot, bot, cfg, messages, bundle.Lang, log), nil
}

// NewWithBot creates a service around an existing client.
func NewWithBot(bot Bot, sender handlers.Sender, cfg config.Config, messages map[string]i18n.Messages, lang string, log *slog.Logger) *Service {
	return &Service{
		bot:     bot,
		cfg:     cfg,
		handler: handlers.NewHandler(sender, messages, lang, log),
		log:     log,
	}
}

// Start begins receiving Telegram updates. It fails if the listener cannot
// be built, for example when the webhook cannot be registered.
func (s *Service) Start(ctx context.Context) error {
	listener, err := NewListener(ctx, s.bot, s.cfg, s.log)
	if err != nil {
		return err
	}
	listener.HintAllowedUpdates([]string{telego.MessageUpdates})
	if timeout, ok := listener.TimeoutHint(); ok {
		s.log.Debug("Listener timeout hint", "timeout", timeout)
	}

	s.listener = listener
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		s.handler.Run(ctx, listener)
	}()
	return nil
}

// Stop shuts down update processing and waits until the update stream has
// ended or ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	if s.listener == nil {
		return errNotStarted
	}
	s.listener.StopToken().Stop()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if webhook, ok := s.listener.AsRight(); ok {
		select {
		case <-webhook.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Webhook reports whether updates arrive via webhook.
func (s *Service) Webhook() bool {
	return s.listener != nil && s.listener.IsRight()
}
