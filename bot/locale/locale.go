package locale

import (
	"embed"
	"strings"

	"prizebot/logger"
	"prizebot/util/common"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle *i18n.Bundle
	localizer  *i18n.Localizer
)

// InitLocalizer loads every toml bundle under translation/ and selects lang
// (e.g. "ru_RU") as the active locale, falling back to en-US.
func InitLocalizer(i18nFS embed.FS, lang string) error {
	i18nBundle = i18n.NewBundle(language.MustParse("en-US"))
	i18nBundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := i18nFS.ReadDir("translation")
	if err != nil {
		return err
	}
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		_, err = i18nBundle.LoadMessageFileFS(i18nFS, "translation/"+entry.Name())
		if err != nil {
			return err
		}
		loaded++
	}
	if loaded == 0 {
		return common.NewErrorf("no translation bundles found under %q", "translation")
	}

	localizer = i18n.NewLocalizer(i18nBundle, lang, "en-US")
	return nil
}

// I18n renders the message for key. Template params are passed as
// "Name==Value" pairs, matching the {{ .Name }} placeholders in the bundles.
func I18n(key string, params ...string) string {
	if localizer == nil {
		return ""
	}

	templateData := map[string]any{}
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		logger.Errorf("Failed to localize message %q: %v", key, err)
		return ""
	}
	return msg
}
