// Package catalog loads localized message catalogs and resolves caller
// locales against them.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the canonical source locale for catalogs.
const BaseLocale = "en-US"

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

// Bundle holds every loaded locale and an x/text catalog built from them.
type Bundle struct {
	messages map[string]map[string]string
	tags     []language.Tag
	locales  []string
	matcher  language.Matcher
	builder  *catalog.Builder
}

//go:embed locales/*/*.yaml
var embeddedCatalogFS embed.FS

var defaultBundle = mustLoadEmbedded()

// Default returns the process-wide embedded catalog bundle.
func Default() *Bundle {
	return defaultBundle
}

// LoadEmbedded loads catalog files embedded in this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedCatalogFS)
}

// LoadFromFS loads every locales/<locale>/<namespace>.yaml file in catalogFS.
// Keys are unique per locale across namespaces.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{messages: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.addFile(p, file); err != nil {
			return nil, err
		}
	}
	if _, ok := bundle.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	if err := bundle.build(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (b *Bundle) addFile(p string, file catalogFile) error {
	localeFromPath := path.Base(path.Dir(p))
	namespaceFromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))

	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if locale != localeFromPath {
		return fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, localeFromPath)
	}
	if strings.TrimSpace(file.Namespace) != namespaceFromPath {
		return fmt.Errorf("catalog %s: namespace %q must match filename namespace %q", p, file.Namespace, namespaceFromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages are required", p)
	}

	existing, ok := b.messages[locale]
	if !ok {
		existing = map[string]string{}
		b.messages[locale] = existing
	}
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		if _, dup := existing[key]; dup {
			return fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, locale)
		}
		existing[key] = value
	}
	return nil
}

func (b *Bundle) build() error {
	base := language.MustParse(BaseLocale)
	b.builder = catalog.NewBuilder(catalog.Fallback(base))

	b.locales = b.locales[:0]
	for locale := range b.messages {
		if locale != BaseLocale {
			b.locales = append(b.locales, locale)
		}
	}
	sort.Strings(b.locales)
	// The base locale goes first so the matcher falls back to it.
	b.locales = append([]string{BaseLocale}, b.locales...)

	b.tags = make([]language.Tag, 0, len(b.locales))
	for _, locale := range b.locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		b.tags = append(b.tags, tag)
		for key, value := range b.messages[locale] {
			if err := b.builder.SetString(tag, key, value); err != nil {
				return fmt.Errorf("register %s/%s: %w", locale, key, err)
			}
		}
	}
	b.matcher = language.NewMatcher(b.tags)
	return nil
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	if b == nil {
		return false
	}
	_, ok := b.messages[locale]
	return ok
}

// Locales returns the loaded locales, base locale first.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.locales...)
}

// Match resolves an Accept-Language style preference list to a loaded locale.
func (b *Bundle) Match(acceptLanguage string) string {
	if b == nil || len(b.tags) == 0 {
		return BaseLocale
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return BaseLocale
	}
	_, index, _ := b.matcher.Match(prefs...)
	return b.locales[index]
}

// Localize returns the resolved locale and the message for key in it. Keys
// missing from the catalog render as the key itself.
func (b *Bundle) Localize(acceptLanguage, key string) (string, string) {
	locale := b.Match(acceptLanguage)
	if b == nil || b.builder == nil {
		return locale, key
	}
	printer := message.NewPrinter(language.MustParse(locale), message.Catalog(b.builder))
	return locale, printer.Sprintf(key)
}

func mustLoadEmbedded() *Bundle {
	bundle, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	return bundle
}
