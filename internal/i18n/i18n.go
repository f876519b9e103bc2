package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Messages contains localized strings for the bot.
type Messages struct {
	Greeting       string `yaml:"greeting"`
	Pong           string `yaml:"pong"`
	EchoUsage      string `yaml:"echo_usage"`
	UnknownCommand string `yaml:"unknown_command"`
}

// Bundle combines language code and messages.
type Bundle struct {
	// Lang is the selected language.
	Lang string
	// Messages are localized strings.
	Messages Messages
}

// Languages lists the bundled translations.
var Languages = []string{"en", "ru"}

//go:embed *.yaml
var files embed.FS

// Load loads i18n messages for the requested language, falling back to English.
func Load(lang string) (Bundle, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "en"
	}

	messages, err := loadMessages(lang)
	if err != nil && lang != "en" {
		messages, err = loadMessages("en")
		if err != nil {
			return Bundle{}, err
		}
		lang = "en"
	} else if err != nil {
		return Bundle{}, err
	}

	return Bundle{Lang: lang, Messages: messages}, nil
}

// LoadAll loads every bundled language keyed by language code.
func LoadAll() (map[string]Messages, error) {
	out := make(map[string]Messages, len(Languages))
	for _, lang := range Languages {
		messages, err := loadMessages(lang)
		if err != nil {
			return nil, err
		}
		out[lang] = messages
	}
	return out, nil
}

func loadMessages(lang string) (Messages, error) {
	data, err := files.ReadFile(fmt.Sprintf("%s.yaml", lang))
	if err != nil {
		return Messages{}, err
	}
	var msg Messages
	if err := yaml.Unmarshal(data, &msg); err != nil {
		return Messages{}, err
	}
	return msg, nil
}
