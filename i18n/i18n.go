// Package i18n translates the formatter's own user-facing strings.
//
// It wraps gotext with embedded locales so the summary report can be
// shown in the user's language. Call Init once at startup; before that,
// T and N fall back to the untranslated message, so library code never
// has to care whether translations were loaded.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// locales holds the embedded translation catalogs,
// locales/{lang}/LC_MESSAGES/i18n-formatter.po.
//
//go:embed all:locales
var locales embed.FS

const domain = "i18n-formatter"

var catalog *gotext.Locale

// Init loads the translation catalog. An empty lang auto-detects from
// LANGUAGE, LC_ALL, LC_MESSAGES and LANG, in GNU gettext priority order.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	catalog = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	catalog.AddDomain(domain)
	catalog.SetDomain(domain)
}

// T translates msgid, returning it unchanged when no translation exists.
func T(msgid string) string {
	if catalog == nil {
		return msgid
	}
	return catalog.Get(msgid)
}

// N translates with plural forms, choosing by the target language's
// plural formula.
func N(singular, plural string, n int) string {
	if catalog == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return catalog.GetN(singular, plural, n)
}

// detectLanguage picks the user's language from the environment,
// following GNU gettext conventions.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE may be a colon-separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// Strip the encoding suffix ("sv_SE.UTF-8" -> "sv_SE").
		val, _, _ = strings.Cut(val, ".")
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
