package matching

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
	sizeRe     = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|g|l|ml|cl|unitats?|uds?|pack|litres?|litros?)\b`)
)

// MinKeywordLength is the shortest word kept by Keywords unless allow-listed.
const MinKeywordLength = 3

// shortWords are staples whose names are too short to survive the length filter.
var shortWords = map[string]bool{
	"pa": true, // bread
	"te": true, // tea
	"ou": true, // egg
	"vi": true, // wine
	"uv": true, // grape
}

// RemoveDiacritics strips combining marks after NFD decomposition.
// "Tomàquet" -> "Tomaquet", "Ñoquis" -> "Noquis", "Xoriço" -> "Xorico".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Normalize folds a product or query name for substring matching:
// lower-case, accents removed, punctuation dropped, whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(RemoveDiacritics(s))
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsShortWordAllowed reports whether a word shorter than MinKeywordLength
// is still significant for search.
func IsShortWordAllowed(word string) bool {
	return shortWords[word]
}

// Keywords splits an already normalized phrase into significant words,
// preserving order.
func Keywords(normalized string) []string {
	fields := strings.Fields(normalized)
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) < MinKeywordLength && !IsShortWordAllowed(w) {
			continue
		}
		words = append(words, w)
	}
	return words
}

// PrimaryKeyword returns the first significant word of a normalized phrase.
func PrimaryKeyword(normalized string) (string, bool) {
	words := Keywords(normalized)
	if len(words) == 0 {
		return "", false
	}
	return words[0], true
}

// SearchText builds the normalized text a product is searched by.
func SearchText(name, brand, category string) string {
	parts := make([]string, 0, 3)
	if n := Normalize(name); n != "" {
		parts = append(parts, n)
	}
	if n := Normalize(brand); n != "" && !isGenericBrand(brand) {
		parts = append(parts, n)
	}
	if n := Normalize(category); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, " ")
}

// NormalizeUnit maps unit spellings to a canonical form ("kg", "g", "L", "mL", "cL", "ud", "pack").
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	conversions := map[string]string{
		"kg":      "kg",
		"g":       "g",
		"l":       "L",
		"litre":   "L",
		"litres":  "L",
		"litro":   "L",
		"litros":  "L",
		"ml":      "mL",
		"cl":      "cL",
		"unitat":  "ud",
		"unitats": "ud",
		"ud":      "ud",
		"uds":     "ud",
		"u":       "ud",
		"pack":    "pack",
	}
	if canonical, ok := conversions[u]; ok {
		return canonical
	}
	return unit
}

// ExtractSize finds a size and unit in a product name, e.g. "Llet 1,5L" -> (1.5, "L").
func ExtractSize(name string) (float64, string, bool) {
	m := sizeRe.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	size, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil {
		return 0, "", false
	}
	return size, NormalizeUnit(m[2]), true
}

// isGenericBrand checks if a brand is generic/unbranded
func isGenericBrand(brand string) bool {
	generic := []string{"n/a", "generic", "genèric", "generico", "genérico", "-", "unknown"}
	b := strings.ToLower(strings.TrimSpace(brand))
	for _, g := range generic {
		if b == g {
			return true
		}
	}
	return false
}
