package models

// LemmaHit is a lemma found by exact word search, annotated with its topic.
type LemmaHit struct {
	Lemma
	Title      string `json:"title"`
	Restricted bool   `json:"restricted"`
}

// AutoCompleteEntry is a deduplicated (word, language) pair for prefix lookup.
type AutoCompleteEntry struct {
	Word string   `json:"word"`
	Lang Language `json:"lang"`
}

// Key identifies the entry; two entries with the same key are the same suggestion.
func (e AutoCompleteEntry) Key() string {
	return string(e.Lang) + ":" + e.Word
}
