// Package models defines the records produced by ingestion and returned by search.
package models

import "time"

// DocumentKind tells what a topic was parsed from.
type DocumentKind string

const (
	// KindIndex is a publication listing (article "index"); it never has lemmas.
	KindIndex DocumentKind = "index"
	// KindLemmas is an article with at least one vocabulary table row.
	KindLemmas DocumentKind = "lemmas"
	// KindText is an article with prose only.
	KindText DocumentKind = "text"
)

// Topic is the persisted form of one source document.
// Filename is the document key "<publication>.<article>" and is unique.
type Topic struct {
	Filename    string       `json:"filename" db:"filename"`
	Publication string       `json:"publication" db:"publication"`
	Article     string       `json:"article" db:"article"`
	Title       string       `json:"title" db:"title"`
	Subtitle    string       `json:"subtitle,omitempty" db:"subtitle"`
	Restricted  bool         `json:"restricted" db:"restricted"`
	Kind        DocumentKind `json:"kind" db:"kind"`
	Sections    []string     `json:"sections" db:"sections"`
	Fingerprint string       `json:"fingerprint" db:"fingerprint"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// TopicDetail is a topic together with its lemmas in document order.
type TopicDetail struct {
	Topic  *Topic   `json:"topic"`
	Lemmas []*Lemma `json:"lemmas"`
}
