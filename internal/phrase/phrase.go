// Package phrase renders user-facing report sentences from a catalog of
// templates keyed by rule id.
package phrase

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogs embed.FS

const (
	startTag = "{{"
	endTag   = "}}"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "en"

var (
	// ErrUnknownLocale is returned for a locale without an embedded catalog.
	ErrUnknownLocale = errors.New("unknown locale")
	// ErrMissingPhrase is returned when a required phrase id is absent.
	ErrMissingPhrase = errors.New("missing phrase")
)

// Params are the named substitutions for one template.
type Params map[string]string

// Catalog holds compiled templates for one locale.
type Catalog struct {
	locale    string
	templates map[string]*fasttemplate.Template
}

// Locales lists the embedded catalog locales.
func Locales() []string {
	entries, _ := catalogs.ReadDir("catalogs")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Load returns the embedded catalog for locale ("" means DefaultLocale).
func Load(locale string) (*Catalog, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	b, err := catalogs.ReadFile("catalogs/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	c := &Catalog{locale: locale, templates: map[string]*fasttemplate.Template{}}
	if err := c.merge(b); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", locale, err)
	}
	return c, nil
}

// MustLoad is Load for embedded locales known to exist.
func MustLoad(locale string) *Catalog {
	c, err := Load(locale)
	if err != nil {
		panic(err)
	}
	return c
}

// Overlay replaces or adds templates from a user YAML file of id: template pairs.
func (c *Catalog) Overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read phrases: %w", err)
	}
	if err := c.merge(b); err != nil {
		return fmt.Errorf("phrases %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) merge(b []byte) error {
	var raw map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	for id, src := range raw {
		t, err := fasttemplate.NewTemplate(src, startTag, endTag)
		if err != nil {
			return fmt.Errorf("compile %s: %w", id, err)
		}
		c.templates[id] = t
	}
	return nil
}

// Locale returns the catalog's locale.
func (c *Catalog) Locale() string { return c.locale }

// Require checks that every id has a template.
func (c *Catalog) Require(ids ...string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := c.templates[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingPhrase, strings.Join(missing, ", "))
	}
	return nil
}

// Render substitutes params into the template for id. Unknown ids render as
// the id itself; unknown placeholders render empty.
func (c *Catalog) Render(id string, params Params) string {
	t, ok := c.templates[id]
	if !ok {
		return id
	}
	m := make(map[string]interface{}, len(params))
	for k, v := range params {
		m[k] = v
	}
	return t.ExecuteString(m)
}
