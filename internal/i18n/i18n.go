// Package i18n looks up user-facing strings from embedded YAML language files.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used for unknown languages and for keys a language lacks.
const DefaultLanguage = "en-us"

// NotFound is returned for keys missing from every loaded language.
const NotFound = "(translation not found)"

//go:embed lang/*.yml
var langFS embed.FS

// Args fills {name} placeholders.
type Args map[string]any

// Translator resolves keys in one language with en-us fallback.
type Translator struct {
	lang     string
	strings  map[string]string
	fallback map[string]string
	logger   *slog.Logger
}

// Load builds a translator for lang. An unknown language logs an error and uses en-us.
func Load(lang string, log *slog.Logger) (*Translator, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("service", "i18n"))
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		log.Warn("no language configured, using default", slog.String("language", DefaultLanguage))
		lang = DefaultLanguage
	}

	fallback, err := readLanguage(DefaultLanguage)
	if err != nil {
		return nil, err
	}
	t := &Translator{lang: DefaultLanguage, strings: fallback, fallback: fallback, logger: log}
	if lang == DefaultLanguage {
		return t, nil
	}
	values, err := readLanguage(lang)
	if errors.Is(err, fs.ErrNotExist) {
		log.Error("language file not found, using default", slog.String("language", lang))
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	t.lang = lang
	t.strings = values
	return t, nil
}

func readLanguage(lang string) (map[string]string, error) {
	data, err := langFS.ReadFile("lang/" + lang + ".yml")
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse language %s: %w", lang, err)
	}
	return values, nil
}

// Languages lists the embedded language codes.
func Languages() []string {
	entries, _ := fs.Glob(langFS, "lang/*.yml")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(strings.TrimPrefix(e, "lang/"), ".yml"))
	}
	sort.Strings(out)
	return out
}

// Language returns the active language code.
func (t *Translator) Language() string { return t.lang }

// T returns the translation for key with args substituted.
func (t *Translator) T(key string, args Args) string {
	text, ok := t.strings[key]
	if !ok || text == "" {
		t.logger.Error("no translation found", slog.String("key", key), slog.String("language", t.lang))
		text, ok = t.fallback[key]
		if !ok || text == "" {
			return NotFound
		}
		t.logger.Info("using default language for key", slog.String("key", key))
	}
	return format(text, args)
}

// Aliases renders key with {commands} set to "`/a <arg>` OR `/b <arg>`". argKey names the
// argument placeholder; empty means no argument.
func (t *Translator) Aliases(key string, aliases []string, argKey string) string {
	return t.T(key, Args{"commands": t.Commands(aliases, argKey)})
}

// Commands joins command aliases the way help texts show them.
func (t *Translator) Commands(aliases []string, argKey string) string {
	arg := ""
	if argKey != "" {
		arg = " <" + t.T(argKey, nil) + ">"
	}
	parts := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		parts = append(parts, "`/"+alias+arg+"`")
	}
	return strings.Join(parts, " OR ")
}

func format(text string, args Args) string {
	if len(args) == 0 {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
