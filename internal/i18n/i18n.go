// Package i18n holds the bot's reply catalog and picks a language for a user.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Lang is a supported reply language.
type Lang string

const (
	English Lang = "en"
	Uzbek   Lang = "uz"
)

// Supported lists languages in button order.
var Supported = []Lang{Uzbek, English}

// ParseLang maps a payload such as "uz" to a supported Lang.
func ParseLang(s string) (Lang, bool) {
	l := Lang(strings.ToLower(strings.TrimSpace(s)))
	for _, sup := range Supported {
		if l == sup {
			return sup, true
		}
	}
	return "", false
}

// Catalog resolves message keys per language.
type Catalog struct {
	messages map[Lang]map[string]string
	fallback Lang
	matcher  language.Matcher
	tags     []Lang
}

// Load parses the embedded locale files. fallback answers for unset or unknown languages.
func Load(fallback Lang) (*Catalog, error) {
	if _, ok := ParseLang(string(fallback)); !ok {
		return nil, fmt.Errorf("i18n: unsupported default language %q", fallback)
	}
	c := &Catalog{
		messages: make(map[Lang]map[string]string, len(Supported)),
		fallback: fallback,
	}
	tags := make([]language.Tag, 0, len(Supported))
	for _, l := range Supported {
		data, err := localeFS.ReadFile(path.Join("locales", string(l)+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", l, err)
		}
		msgs := map[string]string{}
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", l, err)
		}
		c.messages[l] = msgs
		c.tags = append(c.tags, l)
		tags = append(tags, language.Make(string(l)))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Default returns the fallback language.
func (c *Catalog) Default() Lang { return c.fallback }

// Resolve returns l when supported, otherwise the fallback language.
func (c *Catalog) Resolve(l Lang) Lang {
	if _, ok := c.messages[l]; ok {
		return l
	}
	return c.fallback
}

// Text renders key in lang. args are placeholder/value pairs, e.g. "choice", "Audio".
// A key missing in lang falls back to the default language, then to the key itself.
func (c *Catalog) Text(l Lang, key string, args ...string) string {
	msg, ok := c.messages[c.Resolve(l)][key]
	if !ok {
		msg, ok = c.messages[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) < 2 {
		return msg
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Match picks the supported language closest to a client language code such as "uz-Latn-UZ".
// Codes that match nothing return the fallback language.
func (c *Catalog) Match(code string) Lang {
	code = strings.TrimSpace(code)
	if code == "" {
		return c.fallback
	}
	tag, err := language.Parse(code)
	if err != nil {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(c.tags) {
		return c.fallback
	}
	return c.tags[idx]
}

// Choice renders a mode or other choice token as a title-cased label for l.
func (c *Catalog) Choice(l Lang, token string) string {
	return cases.Title(language.Make(string(c.Resolve(l)))).String(strings.ToLower(token))
}
