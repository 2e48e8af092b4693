// Package parser turns the raw text of a study document into a topic header,
// prose sections and vocabulary lemmas.
package parser

import (
	"strings"

	"github.com/hyperjump/lexicon/internal/fileid"
	"github.com/hyperjump/lexicon/internal/models"
)

// Document is the parsed result. It is one of *IndexDocument, *LemmaDocument
// or *TextDocument.
type Document interface {
	Kind() models.DocumentKind
	Topic() *models.Topic
	isDocument()
}

// IndexDocument is a publication listing. Its body is kept as one section and
// never scanned for tables.
type IndexDocument struct {
	Header *models.Topic
}

// LemmaDocument is an article with at least one vocabulary row.
type LemmaDocument struct {
	Header *models.Topic
	Lemmas []*models.Lemma
}

// TextDocument is an article without vocabulary tables.
type TextDocument struct {
	Header *models.Topic
}

func (d *IndexDocument) Kind() models.DocumentKind { return models.KindIndex }
func (d *LemmaDocument) Kind() models.DocumentKind { return models.KindLemmas }
func (d *TextDocument) Kind() models.DocumentKind  { return models.KindText }

func (d *IndexDocument) Topic() *models.Topic { return d.Header }
func (d *LemmaDocument) Topic() *models.Topic { return d.Header }
func (d *TextDocument) Topic() *models.Topic  { return d.Header }

func (*IndexDocument) isDocument() {}
func (*LemmaDocument) isDocument() {}
func (*TextDocument) isDocument()  {}

// Parse parses a whole document. The returned topic has no fingerprint; the
// lemmas have no IDs. Both are assigned by the ingestion pipeline.
func Parse(key fileid.Key, text string) (Document, error) {
	block, body, _ := SplitFrontMatter(text)
	attrs, err := ParseAttributes(block)
	if err != nil {
		return nil, err
	}

	topic := &models.Topic{
		Filename:    key.String(),
		Publication: key.Publication,
		Article:     key.Article,
		Title:       attrs.Title,
		Subtitle:    attrs.Subtitle,
		Restricted:  attrs.Restricted,
		Sections:    []string{},
	}

	if key.IsIndex() {
		topic.Kind = models.KindIndex
		if listing := strings.TrimSpace(body); listing != "" {
			topic.Sections = []string{listing + "\n"}
		}
		return &IndexDocument{Header: topic}, nil
	}

	parsed, err := ParseBody(body, DefaultColumns(attrs.NativeLang, attrs.ForeignLang))
	if err != nil {
		return nil, err
	}
	topic.Sections = parsed.Sections
	if len(parsed.Lemmas) == 0 {
		topic.Kind = models.KindText
		return &TextDocument{Header: topic}, nil
	}
	for _, l := range parsed.Lemmas {
		l.TopicFilename = topic.Filename
	}
	topic.Kind = models.KindLemmas
	return &LemmaDocument{Header: topic, Lemmas: parsed.Lemmas}, nil
}
