package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codex-k8s/telegram-listener/internal/i18n"
	"github.com/codex-k8s/telegram-listener/internal/telegram/shared"
	"github.com/codex-k8s/telegram-listener/internal/telegram/updates"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const (
	// CommandStart greets the user.
	CommandStart = "/start"
	// CommandPing answers with pong.
	CommandPing = "/ping"
	// CommandEcho repeats its argument.
	CommandEcho = "/echo"
)

// Sender sends replies. *telego.Bot implements it.
type Sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Handler processes Telegram updates and answers bot commands.
type Handler struct {
	sender      Sender
	messages    map[string]i18n.Messages
	defaultLang string
	log         *slog.Logger
}

// NewHandler creates a new update handler.
func NewHandler(sender Sender, messages map[string]i18n.Messages, defaultLang string, log *slog.Logger) *Handler {
	return &Handler{
		sender:      sender,
		messages:    messages,
		defaultLang: defaultLang,
		log:         log,
	}
}

// Run processes updates until the listener's sequence ends. Canceling ctx
// stops the listener. Errors from the listener are logged and skipped.
func (h *Handler) Run(ctx context.Context, listener updates.Listener) {
	stopWatch := context.AfterFunc(ctx, listener.StopToken().Stop)
	defer stopWatch()

	for update, err := range listener.Updates() {
		if err != nil {
			h.log.Error("Update listener error", "error", err)
			continue
		}
		h.HandleUpdate(ctx, update)
	}
	h.log.Info("Update stream finished")
}

// HandleUpdate processes a single update.
func (h *Handler) HandleUpdate(ctx context.Context, update telego.Update) {
	msg := update.Message
	if msg == nil {
		h.log.Debug("Skipping non-message update", "update_id", update.UpdateID)
		return
	}
	command, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}

	lang := ""
	if msg.From != nil {
		lang = msg.From.LanguageCode
	}
	text := shared.MessagesFor(h.messages, lang, h.defaultLang)

	switch command {
	case CommandStart:
		h.reply(ctx, msg, text.Greeting, "")
	case CommandPing:
		h.reply(ctx, msg, shared.Bold(text.Pong), telego.ModeMarkdownV2)
	case CommandEcho:
		if args == "" {
			h.reply(ctx, msg, text.EchoUsage, "")
			return
		}
		h.reply(ctx, msg, shared.Code(args), telego.ModeMarkdownV2)
	default:
		h.reply(ctx, msg, text.UnknownCommand, "")
	}
}

func (h *Handler) reply(ctx context.Context, msg *telego.Message, text, parseMode string) {
	_, err := h.sender.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:          tu.ID(msg.Chat.ID),
		Text:            text,
		ParseMode:       parseMode,
		ReplyParameters: &telego.ReplyParameters{MessageID: msg.MessageID},
	})
	if err != nil {
		h.log.Error("Failed to send telegram message", "chat_id", msg.Chat.ID, "error", err)
	}
}

// parseCommand splits "/cmd@bot args" into "/cmd" and "args".
func parseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	command, args, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")
	return strings.ToLower(command), strings.TrimSpace(args), true
}
