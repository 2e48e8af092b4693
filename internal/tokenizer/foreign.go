package tokenizer

import (
	"regexp"
	"strings"
)

var (
	// Short vowels, shadda, sukun and friends, superscript alef, and tatweel.
	tashkeelRe = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0670}\x{0640}]`)
	// Hamza-carrying and wasla alef forms.
	alefRe        = regexp.MustCompile(`[\x{0622}\x{0623}\x{0625}\x{0671}]`)
	foreignWordRe = regexp.MustCompile(`[\x{0621}-\x{064A}\x{0671}]+`)
)

var foreignStopWords = wordSet("م")

// ForeignExtractor tokenizes Arabic-script text. Each word is indexed as
// written (without vowel marks) and with its alef forms normalized to bare alef.
type ForeignExtractor struct {
	stop map[string]struct{}
}

// NewForeignExtractor returns the foreign-language extractor.
func NewForeignExtractor() *ForeignExtractor {
	return &ForeignExtractor{stop: foreignStopWords}
}

// ExtractWords implements Extractor. It never fails.
func (e *ForeignExtractor) ExtractWords(text string) ([]string, error) {
	stripped := StripTashkeel(text)
	normalized := NormalizeAlef(stripped)
	return collect(e.stop,
		foreignWordRe.FindAllString(stripped, -1),
		foreignWordRe.FindAllString(normalized, -1),
	), nil
}

// StripTashkeel removes vocalization marks and the elongation character.
func StripTashkeel(s string) string {
	return tashkeelRe.ReplaceAllString(s, "")
}

// NormalizeAlef maps alef variants to U+0627.
func NormalizeAlef(s string) string {
	if !strings.ContainsAny(s, "آأإٱ") {
		return s
	}
	return alefRe.ReplaceAllString(s, "ا")
}
