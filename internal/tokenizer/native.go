package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketRe    = regexp.MustCompile(`\[[^\]]*\]`)
	nativeWordRe = regexp.MustCompile(`[a-z]+(?:-[a-z]+)*`)
)

// Words shorter than this are not indexed.
const minNativeWordLen = 2

// Letters without a compatibility decomposition.
var latinLetters = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
)

// Grammatical abbreviations used in the vocabulary tables (m., v., ev., mv., vz.).
var nativeStopWords = wordSet("m", "v", "ev", "mv", "vz")

// NativeExtractor tokenizes latin-script text. Optional fragments in
// parentheses are indexed both with and without their content, so
// "(na)zeggen" yields "zeggen" and "nazeggen".
type NativeExtractor struct {
	stop map[string]struct{}
}

// NewNativeExtractor returns the native-language extractor.
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{stop: nativeStopWords}
}

// ExtractWords implements Extractor.
func (e *NativeExtractor) ExtractWords(text string) ([]string, error) {
	text = bracketRe.ReplaceAllString(text, "")
	without, err := RemoveParenthesizedFragments(text)
	if err != nil {
		return nil, err
	}
	with := strings.NewReplacer("(", "", ")", "").Replace(text)
	folded := Latinize(without + " " + with)
	var words []string
	for _, w := range nativeWordRe.FindAllString(folded, -1) {
		if len(w) >= minNativeWordLen {
			words = append(words, w)
		}
	}
	return collect(e.stop, words), nil
}

// RemoveParenthesizedFragments drops every "(...)" including nested ones.
// An unmatched parenthesis yields *UnbalancedParentheses.
func RemoveParenthesizedFragments(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	depth := 0
	for _, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return "", &UnbalancedParentheses{Text: text}
			}
			depth--
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	if depth != 0 {
		return "", &UnbalancedParentheses{Text: text}
	}
	return b.String(), nil
}

// Latinize lowercases s and reduces it to latin base letters: "Café" becomes
// "cafe", the "ĳ" ligature "ij" and "straße" "strasse".
func Latinize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, latinLetters.Replace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}
