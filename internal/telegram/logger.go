package telegram

import (
	"fmt"
	"log/slog"
	"strings"
)

// telegoLogger adapts slog logger to telego.Logger.
type telegoLogger struct {
	log *slog.Logger
}

func newTelegoLogger(log *slog.Logger) telegoLogger {
	return telegoLogger{log: log.With("component", "telego")}
}

func (l telegoLogger) Debugf(format string, args ...any) {
	l.log.Debug(formatMessage(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	l.log.Error(formatMessage(format, args...))
}

func formatMessage(format string, args ...any) string {
	if len(args) == 0 {
		return strings.TrimSpace(format)
	}
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
