// Package i18n holds the static (language, key) -> string catalog shown by the
// front-ends. It is configuration data: loaded once at startup, read-only after.
package i18n

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/language"
)

//go:embed strings.yaml
var embedded []byte

// Fallback is the language used for unmatched preferences and missing keys.
var Fallback = language.English

// Sentinel kinds for catalog errors.
var (
	ErrLoadCatalog  = errors.New("load string catalog failed")
	ErrNoFallback   = errors.New("catalog has no fallback language")
	ErrInvalidValue = errors.New("catalog value must be a string")
)

// Option applies a configuration option to Load.
type Option func(*loadOptions)

type loadOptions struct {
	overlay string
	source  []byte
}

// WithOverlayFile layers a YAML file over the embedded strings.
func WithOverlayFile(path string) Option {
	return func(o *loadOptions) {
		o.overlay = path
	}
}

// WithSource replaces the embedded document. Used by tests.
func WithSource(doc []byte) Option {
	return func(o *loadOptions) {
		if doc != nil {
			o.source = doc
		}
	}
}

// Catalog maps language tags to flat key/value string tables.
type Catalog struct {
	tags    []language.Tag
	strings map[language.Tag]map[string]string
	matcher language.Matcher
}

// Load parses the catalog. The context is accepted for the project-wide
// convention and is currently unused.
func Load(_ context.Context, opts ...Option) (*Catalog, error) {
	o := loadOptions{source: embedded}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(o.source), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}
	if o.overlay != "" {
		if err := k.Load(file.Provider(o.overlay), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, o.overlay, err)
		}
	}

	c := &Catalog{strings: make(map[language.Tag]map[string]string)}
	for path, v := range k.All() {
		lang, key, ok := strings.Cut(path, ".")
		if !ok {
			continue
		}
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w: language %q: %w", ErrLoadCatalog, lang, err)
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %s", ErrLoadCatalog, ErrInvalidValue, path)
		}
		if c.strings[tag] == nil {
			c.strings[tag] = make(map[string]string)
		}
		c.strings[tag][key] = s
	}
	if _, ok := c.strings[Fallback]; !ok {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, ErrNoFallback)
	}

	// The matcher's default is its first tag, so the fallback leads.
	c.tags = append(c.tags, Fallback)
	rest := make([]language.Tag, 0, len(c.strings)-1)
	for tag := range c.strings {
		if tag != Fallback {
			rest = append(rest, tag)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	c.tags = append(c.tags, rest...)
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Languages lists the supported tags, fallback first.
func (c *Catalog) Languages() []language.Tag {
	out := make([]language.Tag, len(c.tags))
	copy(out, c.tags)
	return out
}

// Match picks the best supported language for the given preferences. Each
// preference may be a tag ("zh-CN") or a full Accept-Language header.
func (c *Catalog) Match(prefs ...string) language.Tag {
	_, idx := language.MatchStrings(c.matcher, prefs...)
	if idx < 0 || idx >= len(c.tags) {
		return Fallback
	}
	return c.tags[idx]
}

// Text looks key up in tag, then the fallback language, then returns key.
func (c *Catalog) Text(tag language.Tag, key string) string {
	if s, ok := c.strings[tag][key]; ok {
		return s
	}
	if s, ok := c.strings[Fallback][key]; ok {
		return s
	}
	return key
}

// Bundle returns every key for tag with fallback strings filled in.
func (c *Catalog) Bundle(tag language.Tag) map[string]string {
	out := make(map[string]string, len(c.strings[Fallback]))
	for k, v := range c.strings[Fallback] {
		out[k] = v
	}
	for k, v := range c.strings[tag] {
		out[k] = v
	}
	return out
}
