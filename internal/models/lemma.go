package models

// Language is the role a word plays in a lemma.
type Language string

const (
	LanguageNative  Language = "native"
	LanguageForeign Language = "foreign"
)

// Lemma is one row of a vocabulary table.
type Lemma struct {
	ID            string `json:"id" db:"id"`
	TopicFilename string `json:"topic_filename" db:"topic_filename"`
	Position      int    `json:"position" db:"position"`
	SectionIndex  int    `json:"section_index" db:"section_index"`
	Native        string `json:"native" db:"native"`
	Foreign       string `json:"foreign" db:"foreign_text"`
	Roman         string `json:"roman,omitempty" db:"roman"`
}

// WordEntry is one token of a lemma, used for exact search.
// Position mirrors the owning lemma's position so results keep document order.
type WordEntry struct {
	ID       int64    `json:"id" db:"id"`
	Word     string   `json:"word" db:"word"`
	Lang     Language `json:"lang" db:"lang"`
	Filename string   `json:"filename" db:"filename"`
	Position int      `json:"position" db:"position"`
	LemmaID  string   `json:"lemma_id" db:"lemma_id"`
}
