// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	// catalogs holds built-in and registered catalogs by locale.
	catalogs = map[string]*Catalog{
		BaseLocale: NewCatalog(BaseLocale, enUS),
		"pt-BR":    NewCatalog("pt-BR", ptBR),
	}
)

// GetCatalog returns the best catalog for the given locale.
// Falls back to en-US when nothing matches.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	if c, ok := lookupCatalog(requested); ok {
		return c
	}

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	supported := make([]language.Tag, 0, len(catalogs))
	names := make([]string, 0, len(catalogs))
	// The base locale goes first so the matcher falls back to it.
	supported = append(supported, language.MustParse(BaseLocale))
	names = append(names, BaseLocale)
	for name := range catalogs {
		if name == BaseLocale {
			continue
		}
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		supported = append(supported, tag)
		names = append(names, name)
	}
	_, index, confidence := language.NewMatcher(supported).Match(language.Make(requested))
	if confidence == language.No {
		return catalogs[BaseLocale]
	}
	return catalogs[names[index]]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a catalog for the given locale, replacing any
// existing one.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

func lookupCatalog(locale string) (*Catalog, bool) {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	cat, ok := catalogs[locale]
	return cat, ok
}
