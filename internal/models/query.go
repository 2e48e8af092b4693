package models

import (
	"errors"
	"strings"
)

// ErrEmptyTerm is returned when a search word or lookup prefix is blank.
var ErrEmptyTerm = errors.New("search term cannot be empty")

// SearchQuery is an exact word search.
type SearchQuery struct {
	Word       string `json:"word"`
	Authorized bool   `json:"authorized,omitempty"`
}

// Validate trims the word and rejects an empty one.
func (q *SearchQuery) Validate() error {
	q.Word = strings.TrimSpace(q.Word)
	if q.Word == "" {
		return ErrEmptyTerm
	}
	return nil
}

// LookupQuery is a prefix lookup against the autocomplete index.
type LookupQuery struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit,omitempty"`
}

// Validate rejects an empty prefix and normalizes Limit: values <= 0 become
// defaultLimit and values above maxLimit are capped. The prefix is not trimmed
// because lookup is case and whitespace sensitive.
func (q *LookupQuery) Validate(defaultLimit, maxLimit int) error {
	if q.Prefix == "" {
		return ErrEmptyTerm
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}
