package telegram

import (
	"context"
	"log/slog"

	"github.com/codex-k8s/telegram-listener/internal/config"
	"github.com/codex-k8s/telegram-listener/internal/telegram/updates"
)

// Bot is the part of the Telegram client used to receive updates.
// *telego.Bot implements it.
type Bot interface {
	updates.Poller
	updates.Registrar
}

// Listener is the update listener selected by configuration.
type Listener = updates.Either[*updates.LongPolling, *updates.Webhook]

// NewListener builds a webhook listener when webhook settings are complete
// and a long polling listener otherwise.
func NewListener(ctx context.Context, bot Bot, cfg config.Config, log *slog.Logger) (*Listener, error) {
	if webhook, ok := cfg.Webhook(); ok {
		w, err := updates.StartWebhook(ctx, bot, webhook, log,
			updates.WithSecretToken(cfg.WebhookSecret),
			updates.WithAllowedUpdates(cfg.AllowedUpdates),
			updates.WithMaxBodySize(cfg.MaxBodySize),
			updates.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			updates.WithShutdownTimeout(cfg.ShutdownTimeout),
		)
		if err != nil {
			return nil, err
		}
		return updates.Right[*updates.LongPolling](w), nil
	}

	polling := updates.NewLongPolling(ctx, bot, log,
		updates.WithPollTimeout(cfg.PollTimeout),
		updates.WithPollAllowedUpdates(cfg.AllowedUpdates),
	)
	return updates.Left[*updates.LongPolling, *updates.Webhook](polling), nil
}
