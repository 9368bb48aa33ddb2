// Package translation wraps gotext. Message ids are the English format
// strings themselves, so an unconfigured or unknown locale still produces
// readable text.
package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads <dir>/<lang>/default.po. Values like "ru_RU.UTF-8" are
// reduced to "ru_RU".
func Configure(dir, lang string) {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	gotext.Configure(dir, strings.ToLower(lang), "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
