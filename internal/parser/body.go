package parser

import (
	"regexp"
	"strings"

	"github.com/hyperjump/lexicon/internal/models"
)

var (
	lineBreakRe = regexp.MustCompile(`\r?\n`)
	dividerRe   = regexp.MustCompile(`^[-:| ]+$`)
	cellSplitRe = regexp.MustCompile(`\s*\|\s*`)
)

// Columns is the accepted header vocabulary per position. Position 0 is the
// native term, 1 the foreign term, 2 the optional romanization.
type Columns [3][]string

// DefaultColumns accepts the generic names plus the given language codes.
func DefaultColumns(nativeLang, foreignLang string) Columns {
	return Columns{
		{"native", nativeLang},
		{"foreign", foreignLang},
		{"roman", "rom"},
	}
}

// headerMatcher matches lines shaped like a table header: two or three
// names separated by "|", each a lowercase word or one of the aliases.
func (c Columns) headerMatcher() *regexp.Regexp {
	alts := []string{`[a-z]+`}
	for _, names := range c {
		for _, n := range names {
			if n != "" {
				alts = append(alts, regexp.QuoteMeta(n))
			}
		}
	}
	name := "(?:" + strings.Join(alts, "|") + ")"
	return regexp.MustCompile(`^` + name + `(?:\s*\|\s*` + name + `){1,2}$`)
}

// Body is the scanned content of a document.
type Body struct {
	Sections []string
	Lemmas   []*models.Lemma
}

type scanState int

const (
	scanningText scanState = iota
	inTable
)

// lines is the arena the scanner walks with an integer cursor.
type lines struct {
	items []string
	pos   int
}

func (l *lines) done() bool { return l.pos >= len(l.items) }

func (l *lines) next() string {
	s := l.items[l.pos]
	l.pos++
	return s
}

// ParseBody scans the body into prose sections and vocabulary rows.
// The prose before every table header is flushed as a section, even when
// empty, and the table's lemmas point at that section.
// Lemma IDs and topic references are left for the caller.
func ParseBody(body string, cols Columns) (*Body, error) {
	out := &Body{Sections: []string{}}
	body = strings.TrimSpace(body)
	if body == "" {
		return out, nil
	}
	src := &lines{items: splitLines(body)}
	headerRe := cols.headerMatcher()

	state := scanningText
	var section strings.Builder
	var width, sectionIndex int

	for !src.done() {
		line := src.next()
		trimmed := strings.TrimSpace(line)

		switch state {
		case scanningText:
			if headerRe.MatchString(trimmed) {
				n, err := checkHeader(trimmed, cols)
				if err != nil {
					return nil, err
				}
				sectionIndex = len(out.Sections)
				out.Sections = append(out.Sections, section.String())
				section.Reset()
				width = n

				if src.done() {
					return nil, &MalformedTableDivider{}
				}
				divider := strings.TrimSpace(src.next())
				if !dividerRe.MatchString(divider) {
					return nil, &MalformedTableDivider{Line: divider}
				}
				state = inTable
				continue
			}
			section.WriteString(line)
			section.WriteString("\n")

		case inTable:
			if trimmed == "" {
				state = scanningText
				continue
			}
			cells := cellSplitRe.Split(trimmed, -1)
			if len(cells) != width {
				return nil, &CellCountMismatch{Line: trimmed, Want: width, Got: len(cells)}
			}
			lemma := &models.Lemma{
				Position:     len(out.Lemmas),
				SectionIndex: sectionIndex,
				Native:       cells[0],
				Foreign:      cells[1],
			}
			if width == 3 {
				lemma.Roman = cells[2]
			}
			out.Lemmas = append(out.Lemmas, lemma)
		}
	}

	if section.Len() > 0 {
		out.Sections = append(out.Sections, section.String())
	}
	return out, nil
}

// checkHeader validates column names by position and returns the column count.
func checkHeader(header string, cols Columns) (int, error) {
	names := cellSplitRe.Split(header, -1)
	for i, name := range names {
		if !contains(cols[i], name) {
			return 0, &UnrecognizedColumn{Line: header, Column: name}
		}
	}
	return len(names), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v != "" && v == s {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	return lineBreakRe.Split(s, -1)
}
