// Package langmeta provides display metadata (native names and emoji flags)
// for the locale codes returned by the translation service.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// Resolve returns best-effort metadata for a locale code such as "fr_FR",
// "pt-BR" or "en". Unknown codes come back with the code as name and no flag.
func Resolve(code string) Meta {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if err != nil {
		return Meta{Name: code}
	}

	name := display.Self.Name(tag)
	if name == "" {
		name = code
	}

	flag := ""
	if region, conf := tag.Region(); conf == language.Exact {
		flag = FlagFromRegion(region.String())
	}
	return Meta{Name: name, Flag: flag}
}

// Label formats a code for log lines: "fr_FR (français (France) 🇫🇷)".
func Label(code string) string {
	m := Resolve(code)
	if m.Name == code && m.Flag == "" {
		return code
	}
	if m.Flag == "" {
		return code + " (" + m.Name + ")"
	}
	return code + " (" + m.Name + " " + m.Flag + ")"
}

// FlagFromRegion turns a two-letter region code into its emoji flag.
// Anything else yields "".
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	region = strings.ToUpper(region)
	var b strings.Builder
	for _, r := range region {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
