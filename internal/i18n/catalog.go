// Package i18n loads the player-facing message catalogs and renders message
// keys with %placeholder% substitutions.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the fallback locale every catalog set must define.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Header   string            `yaml:"header"`
	Messages map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	header   string
	messages map[string]string
}

// Catalog holds every loaded locale.
type Catalog struct {
	locales map[string]*localeCatalog
	tags    []string
	matcher language.Matcher
}

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	return LoadFromFS(embeddedLocales)
}

// LoadFromFS loads locales/*.yaml from fsys. The file name must match the
// locale declared inside it.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("i18n: glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n: no catalog files found")
	}
	sort.Strings(paths)

	c := &Catalog{locales: make(map[string]*localeCatalog, len(paths))}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", p, err)
		}
		if err := c.add(p, file); err != nil {
			return nil, err
		}
	}

	if _, ok := c.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("i18n: base locale %s is not defined", BaseLocale)
	}
	c.buildMatcher()
	return c, nil
}

func (c *Catalog) add(p string, file catalogFile) error {
	fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("i18n: %s: locale is required", p)
	}
	if locale != fromPath {
		return fmt.Errorf("i18n: %s: locale %q must match file name %q", p, locale, fromPath)
	}
	if _, err := language.Parse(locale); err != nil {
		return fmt.Errorf("i18n: %s: locale %q: %w", p, locale, err)
	}
	if file.Messages == nil {
		return fmt.Errorf("i18n: %s: messages map is required", p)
	}

	messages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("i18n: %s: message key cannot be blank", p)
		}
		messages[key] = value
	}
	c.locales[locale] = &localeCatalog{header: file.Header, messages: messages}
	return nil
}

// buildMatcher puts the base locale first so it is the matcher's default.
func (c *Catalog) buildMatcher() {
	c.tags = []string{BaseLocale}
	for locale := range c.locales {
		if locale != BaseLocale {
			c.tags = append(c.tags, locale)
		}
	}
	sort.Strings(c.tags[1:])

	supported := make([]language.Tag, len(c.tags))
	for i, locale := range c.tags {
		supported[i] = language.MustParse(locale)
	}
	c.matcher = language.NewMatcher(supported)
}

// Locales returns the loaded locale ids, base locale first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	copy(out, c.tags)
	return out
}

// Match returns the loaded locale closest to preferred, which may be a
// single tag or an Accept-Language list. Anything unparseable or
// unsupported resolves to the base locale.
func (c *Catalog) Match(preferred string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return BaseLocale
	}
	tags, _, err := language.ParseAcceptLanguage(preferred)
	if err != nil || len(tags) == 0 {
		return BaseLocale
	}
	_, index, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return BaseLocale
	}
	return c.tags[index]
}

// Message returns the raw template for key with base-locale fallback.
func (c *Catalog) Message(locale, key string) (string, bool) {
	if lc, ok := c.locales[locale]; ok {
		if v, ok := lc.messages[key]; ok {
			return v, true
		}
	}
	if v, ok := c.locales[BaseLocale].messages[key]; ok {
		return v, true
	}
	return "", false
}

// Header returns the prefix prepended to every rendered message.
func (c *Catalog) Header(locale string) string {
	if lc, ok := c.locales[locale]; ok {
		return lc.header
	}
	return c.locales[BaseLocale].header
}

// Render returns header + template with every %name% replaced from vars.
// A key missing from every catalog renders as the key itself.
func (c *Catalog) Render(locale, key string, vars map[string]string) string {
	tmpl, ok := c.Message(locale, key)
	if !ok {
		tmpl = key
	}
	return c.Header(locale) + Substitute(tmpl, vars)
}

// Substitute replaces %name% placeholders in tmpl. Unknown placeholders
// are left as they are.
func Substitute(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "%"+name+"%", vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
