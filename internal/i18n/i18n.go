// Package i18n resolves stable message keys to display text. The scanner
// and report formatter never hardcode user-facing strings; they carry
// keys and resolve them through a Translator passed in at construction.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator holds one loaded locale table. Construct once at process
// start and pass by reference; there is no package-level instance.
type Translator struct {
	table string // raw locale JSON, queried with gjson
}

// New loads the locale table for the given language tag, falling back to
// English when the tag has no table.
func New(lang string) *Translator {
	b, err := localeFS.ReadFile("locales/" + lang + ".json")
	if err != nil {
		b, _ = localeFS.ReadFile("locales/en.json")
	}
	return &Translator{table: string(b)}
}

// T resolves key to display text, substituting positional {0}, {1}, ...
// placeholders. An unresolved key is returned verbatim so a missing
// translation never hides a finding.
func (t *Translator) T(key string, args ...string) string {
	res := gjson.Get(t.table, key)
	text := key
	if res.Exists() {
		text = res.String()
	}
	for i, a := range args {
		text = strings.ReplaceAll(text, fmt.Sprintf("{%d}", i), a)
	}
	return text
}
