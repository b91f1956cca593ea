// Package translit derives machine-safe system names from display labels,
// transliterating Cyrillic letters to Latin.
package translit

import (
	"regexp"
	"strings"
	"unicode"
)

// cyrillicMap is the fixed transliteration table. Hard and soft signs drop.
var cyrillicMap = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "j", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// systemNamePattern is the shape every system name must satisfy
var systemNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// underscoreRuns collapses separator runs left over after transliteration
var underscoreRuns = regexp.MustCompile(`_+`)

// IsValidSystemName reports whether name is a well-formed system name
func IsValidSystemName(name string) bool {
	return systemNamePattern.MatchString(name)
}

// Transliterate converts a label to a lowercase Latin string, mapping
// Cyrillic letters through the fixed table and collapsing every run of
// non-alphanumeric characters to a single underscore.
func Transliterate(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Cyrillic, r):
			b.WriteString(cyrillicMap[r])
		default:
			b.WriteByte('_')
		}
	}
	out := underscoreRuns.ReplaceAllString(b.String(), "_")
	return strings.Trim(out, "_")
}

// DeriveSystemName produces a system name from a display label. Names that
// come out empty or starting with a digit get the fallback prefix so that
// auto-generation never produces a malformed name from a non-empty label.
func DeriveSystemName(label, fallbackPrefix string) string {
	name := Transliterate(label)
	if name == "" {
		return ""
	}
	if !IsValidSystemName(name) {
		name = strings.Trim(fallbackPrefix+"_"+name, "_")
		name = underscoreRuns.ReplaceAllString(name, "_")
	}
	if !IsValidSystemName(name) {
		return ""
	}
	return name
}
