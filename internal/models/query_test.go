package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		want    string
		wantErr bool
	}{
		{"empty word", &SearchQuery{Word: ""}, "", true},
		{"blank word", &SearchQuery{Word: "   "}, "", true},
		{"valid word", &SearchQuery{Word: "voor"}, "voor", false},
		{"trims surrounding space", &SearchQuery{Word: " leren\t"}, "leren", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrEmptyTerm) {
				t.Errorf("expected ErrEmptyTerm, got %v", err)
			}
			if !tt.wantErr && tt.query.Word != tt.want {
				t.Errorf("Word = %q, want %q", tt.query.Word, tt.want)
			}
		})
	}
}

func TestLookupQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     *LookupQuery
		wantLimit int
		wantErr   bool
	}{
		{"empty prefix", &LookupQuery{Prefix: ""}, 0, true},
		{"sets default limit", &LookupQuery{Prefix: "vo", Limit: 0}, 10, false},
		{"negative limit uses default", &LookupQuery{Prefix: "vo", Limit: -3}, 10, false},
		{"keeps limit in range", &LookupQuery{Prefix: "vo", Limit: 25}, 25, false},
		{"caps limit", &LookupQuery{Prefix: "vo", Limit: 500}, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(10, 100)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", tt.query.Limit, tt.wantLimit)
			}
		})
	}
}

func TestAutoCompleteEntry_Key(t *testing.T) {
	a := AutoCompleteEntry{Word: "voor", Lang: LanguageNative}
	b := AutoCompleteEntry{Word: "voor", Lang: LanguageForeign}
	if a.Key() == b.Key() {
		t.Errorf("same word in different languages must have distinct keys: %q", a.Key())
	}
	if a.Key() != "native:voor" {
		t.Errorf("Key() = %q", a.Key())
	}
}
