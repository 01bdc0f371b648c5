// Package i18n resolves user-facing strings from YAML catalogs.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	// Tf substitutes {name} placeholders in the resolved string.
	Tf(key string, args map[string]any) string
	// Plural picks key.one, key.few or key.many for n and substitutes args.
	Plural(key string, n int, args map[string]any) string
	Lang() string
}

// Manager stores all available translations.
type Manager struct {
	translations map[string]map[string]string
	defaultLang  string
}

// Load loads the catalogs compiled into the binary.
func Load(defaultLang string) (*Manager, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: open embedded catalogs: %w", err)
	}
	return LoadFS(sub, defaultLang)
}

// LoadFS loads translations from every YAML file at the root of fsys.
func LoadFS(fsys fs.FS, defaultLang string) (*Manager, error) {
	catalog, err := parseFS(fsys)
	if err != nil {
		return nil, err
	}

	if defaultLang == "" {
		defaultLang = "ru"
	}

	if _, ok := catalog[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{translations: catalog, defaultLang: defaultLang}, nil
}

// Translator returns a translator for the requested language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))
	if norm == "" || m.translations[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:         norm,
		fallback:     m.defaultLang,
		translations: m.translations,
	}
}

// Languages returns all loaded languages in alphabetical order.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(m.translations))
}

// Missing lists the keys of the default language that lang does not translate.
// Such keys still render, in the default language.
func (m *Manager) Missing(lang string) []string {
	if m == nil {
		return nil
	}

	var missing []string
	for key := range m.translations[m.defaultLang] {
		if _, ok := m.translations[lang][key]; !ok {
			missing = append(missing, key)
		}
	}
	slices.Sort(missing)
	return missing
}

type translator struct {
	lang         string
	fallback     string
	translations map[string]map[string]string
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if value := t.lookup(t.lang, key); value != "" {
		return value
	}

	if value := t.lookup(t.fallback, key); value != "" {
		return value
	}

	return key
}

func (t translator) Tf(key string, args map[string]any) string {
	return substitute(t.T(key), args)
}

func (t translator) Plural(key string, n int, args map[string]any) string {
	return t.Tf(key+"."+pluralForm(t.lang, n), args)
}

func (t translator) lookup(lang, key string) string {
	if lang == "" || t.translations == nil {
		return ""
	}

	if entries := t.translations[lang]; entries != nil {
		if value, ok := entries[key]; ok {
			return value
		}
	}

	return ""
}

func substitute(text string, args map[string]any) string {
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// pluralForm implements the CLDR cardinal rules for the shipped languages.
func pluralForm(lang string, n int) string {
	if n < 0 {
		n = -n
	}

	switch lang {
	case "ru":
		mod10, mod100 := n%10, n%100
		switch {
		case mod10 == 1 && mod100 != 11:
			return "one"
		case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
			return "few"
		default:
			return "many"
		}
	default:
		if n == 1 {
			return "one"
		}
		return "many"
	}
}

// parseFS merges every top-level YAML file of fsys into one catalog.
// Files look like "ru: {menu: {add: ...}}" and nested keys are joined with dots.
func parseFS(fsys fs.FS) (map[string]map[string]string, error) {
	names, err := fs.Glob(fsys, "*.y*ml")
	if err != nil {
		return nil, fmt.Errorf("i18n: list catalogs: %w", err)
	}

	catalog := make(map[string]map[string]string)
	found := false
	for _, name := range names {
		if ext := path.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		found = true

		if err := parseFile(fsys, name, catalog); err != nil {
			return nil, err
		}
	}

	if !found {
		return nil, errors.New("i18n: no yaml catalogs found")
	}
	return catalog, nil
}

func parseFile(fsys fs.FS, name string, catalog map[string]map[string]string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("i18n: %s: top level must map languages to messages", name)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := strings.ToLower(strings.TrimSpace(root.Content[i].Value))
		if lang == "" {
			continue
		}
		if catalog[lang] == nil {
			catalog[lang] = make(map[string]string)
		}
		flatten("", root.Content[i+1], catalog[lang])
	}
	return nil
}

// flatten copies scalar leaves of node into out under dot-joined keys.
func flatten(prefix string, node *yaml.Node, out map[string]string) {
	switch node.Kind {
	case yaml.ScalarNode:
		if prefix != "" {
			out[prefix] = node.Value
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			flatten(key, node.Content[i+1], out)
		}
	}
}
