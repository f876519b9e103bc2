package shared

import (
	"strings"

	"github.com/codex-k8s/telegram-listener/internal/i18n"
)

// MessagesFor resolves localized messages for a Telegram language code such
// as "ru" or "en-US", falling back to fallbackLang and then English.
func MessagesFor(messages map[string]i18n.Messages, lang, fallbackLang string) i18n.Messages {
	for _, candidate := range []string{baseLang(lang), baseLang(fallbackLang), "en"} {
		if candidate == "" {
			continue
		}
		if msg, ok := messages[candidate]; ok {
			return msg
		}
	}
	return i18n.Messages{}
}

func baseLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	return lang
}
