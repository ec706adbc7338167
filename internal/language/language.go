// Package language normalizes language codes, resolves display names for
// document headers and detects the language of subtitle text.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks for the input language to be detected from the subtitle text.
const Auto = "auto"

// codes offered by the language pickers of the front-ends
var supported = []string{
	"en", "fr", "de", "it", "es", "pt", "nl", "sv", "no", "da", "fi",
	"ru", "pl", "cs", "hu", "ro", "tr", "ja", "zh", "ko",
}

// Supported returns the language codes front-ends offer by default.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// Normalize trims and lower-cases a code. Validity is left to the
// translation engine.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Equal compares two codes after normalization, treating regional variants
// of the same base language as distinct ("pt" vs "pt-br").
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// DisplayName returns the English name of a language code, e.g. "French"
// for "fr". Unknown codes come back upper-cased.
func DisplayName(code string) string {
	code = Normalize(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return strings.ToUpper(code)
	}
	return name
}

// Tag parses a code into a BCP 47 tag.
func Tag(code string) (language.Tag, error) {
	return language.Parse(Normalize(code))
}

// Detect returns the ISO 639-1 code most of the texts are written in, or
// "" when nothing could be detected.
func Detect(texts []string) string {
	counts := make(map[string]int)
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		code := whatlanggo.DetectLang(text).Iso6391()
		if code == "" {
			continue
		}
		counts[code]++
	}

	var best string
	var bestCount int
	for code, count := range counts {
		if count > bestCount || (count == bestCount && code < best) {
			best = code
			bestCount = count
		}
	}
	return best
}
