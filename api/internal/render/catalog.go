package render

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type Locale string

const (
	Japanese Locale = "ja"
	English  Locale = "en"

	DefaultLocale = Japanese
)

// ParseLocale reads a language tag such as "en-US" or an Accept-Language
// header. Unknown or empty input yields fallback.
func ParseLocale(s string, fallback Locale) Locale {
	for _, part := range strings.Split(s, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if i := strings.IndexAny(tag, ";-_"); i >= 0 {
			tag = tag[:i]
		}
		switch Locale(tag) {
		case Japanese, English:
			return Locale(tag)
		}
	}
	return fallback
}

//go:embed locales.yaml
var localesYAML []byte

type localeStrings struct {
	NoData   string            `yaml:"noData"`
	Sections map[string]string `yaml:"sections"`
	Labels   map[string]string `yaml:"labels"`
	Errors   map[string]string `yaml:"errors"`
	Bot      map[string]string `yaml:"bot"`
}

// Catalog holds the display strings of every supported locale.
type Catalog struct {
	locales map[Locale]localeStrings
}

func LoadCatalog() (*Catalog, error) {
	var raw map[Locale]localeStrings
	if err := yaml.Unmarshal(localesYAML, &raw); err != nil {
		return nil, fmt.Errorf("locales.yaml: %w", err)
	}
	if _, ok := raw[DefaultLocale]; !ok {
		return nil, fmt.Errorf("locales.yaml: default locale %q missing", DefaultLocale)
	}
	return &Catalog{locales: raw}, nil
}

// MustCatalog panics on a broken embedded catalog.
func MustCatalog() *Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) get(loc Locale) localeStrings {
	if s, ok := c.locales[loc]; ok {
		return s
	}
	return c.locales[DefaultLocale]
}

func (c *Catalog) NoData(loc Locale) string { return c.get(loc).NoData }

func (c *Catalog) Section(loc Locale, key string) string { return lookup(c.get(loc).Sections, key) }

func (c *Catalog) Label(loc Locale, key string) string { return lookup(c.get(loc).Labels, key) }

// Message returns the user-facing text for an error kind or other message key.
func (c *Catalog) Message(loc Locale, key string) string {
	if s := lookup(c.get(loc).Errors, key); s != key {
		return s
	}
	return lookup(c.get(loc).Errors, "internal")
}

// Bot returns chat front-end text such as "start" or "help".
func (c *Catalog) Bot(loc Locale, key string) string { return lookup(c.get(loc).Bot, key) }

func lookup(m map[string]string, key string) string {
	if s, ok := m[key]; ok && s != "" {
		return s
	}
	return key
}
