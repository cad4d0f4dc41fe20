package i18n

import (
	"embed"
	"encoding/json"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/active.en.json
var localeFS embed.FS

var bundle *goi18n.Bundle

// Init loads the embedded locale files. Must be called once at startup
// before any call to T.
func Init() error {
	bundle = goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	if _, err := bundle.LoadMessageFileFS(localeFS, "locales/active.en.json"); err != nil {
		return err
	}
	return nil
}

// T resolves messageID for the given language tags, falling back to the
// message ID itself when no translation exists.
func T(messageID string, langs ...string) string {
	if bundle == nil {
		return messageID
	}
	localizer := goi18n.NewLocalizer(bundle, langs...)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return messageID
	}
	return msg
}
