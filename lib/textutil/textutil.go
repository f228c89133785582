package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// filler words that appear in marketplace listings but carry no
// identity: "The New Air Max" and "air max" are the same product
var fillerWords = []string{"the", "new", "mens", "womens", "men's", "women's"}

// NormalizeProductName lowercases, collapses whitespace runs to a single
// space and strips stand-alone filler words. Filler words are only removed
// when they form a whole token, never as substrings ("news" stays intact).
func NormalizeProductName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	if name == "" {
		return ""
	}

	tokens := strings.Split(name, " ")
	kept := tokens[:0]
	for _, tok := range tokens {
		if isFiller(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func isFiller(token string) bool {
	for _, w := range fillerWords {
		if token == w {
			return true
		}
	}
	return false
}

// NormalizeSKU uppercases and trims a SKU for exact comparison.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
