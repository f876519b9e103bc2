package shared

import "strings"

const (
	markdownV2Special = "_*[]()~`>#+-=|{}.!\\"
	markdownV2Code    = "\\`"
)

// EscapeMarkdownV2 escapes text for Telegram MarkdownV2 mode.
func EscapeMarkdownV2(value string) string {
	return escapeWithSet(value, markdownV2Special)
}

// EscapeMarkdownV2Code escapes inline code payload for Telegram MarkdownV2 mode.
func EscapeMarkdownV2Code(value string) string {
	return escapeWithSet(value, markdownV2Code)
}

// Bold wraps escaped text in MarkdownV2 bold markers.
func Bold(value string) string {
	return "*" + EscapeMarkdownV2(value) + "*"
}

// Code wraps escaped text in MarkdownV2 inline code markers.
func Code(value string) string {
	return "`" + EscapeMarkdownV2Code(value) + "`"
}

func escapeWithSet(value, escapedRunes string) string {
	if value == "" {
		return value
	}
	var builder strings.Builder
	builder.Grow(len(value) * 2)
	for _, r := range value {
		if strings.ContainsRune(escapedRunes, r) {
			builder.WriteByte('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
