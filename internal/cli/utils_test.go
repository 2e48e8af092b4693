package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/lexicon/internal/models"
)

func sampleHits() []*models.LemmaHit {
	return []*models.LemmaHit{
		{Lemma: models.Lemma{ID: "a", TopicFilename: "lessen.les-01", Position: 0, Native: "voor", Foreign: "أَمَامَ", Roman: "ʾamāma"}, Title: "Les 1"},
		{Lemma: models.Lemma{ID: "b", TopicFilename: "lessen.les-01", Position: 4, Native: "voor het huis", Foreign: "أَمَامَ البَيْت"}, Title: "Les 1"},
		{Lemma: models.Lemma{ID: "c", TopicFilename: "lessen.les-02", Position: 1, Native: "voor", Foreign: "قَبْلَ"}, Title: "Les 2", Restricted: true},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{" JSON ", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "voor", sampleHits(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded struct {
		Word    string            `json:"word"`
		Total   int               `json:"total"`
		Results []models.LemmaHit `json:"results"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Word != "voor" || decoded.Total != 3 || len(decoded.Results) != 3 {
		t.Errorf("unexpected decoded output: %+v", decoded)
	}
	if decoded.Results[2].TopicFilename != "lessen.les-02" || !decoded.Results[2].Restricted {
		t.Errorf("third result: %+v", decoded.Results[2])
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "voor", sampleHits(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{`Found 3 lemmas for "voor"`, "lessen.les-01: Les 1", "lessen.les-02: Les 2", "(ʾamāma)", "voor het huis"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if n := strings.Count(out, "lessen.les-01"); n != 1 {
		t.Errorf("topic header should be printed once per topic, got %d", n)
	}
}

func TestWriteSearchResults_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "niets", nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 lemmas") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestWriteLookupResults(t *testing.T) {
	entries := []models.AutoCompleteEntry{
		{Word: "huis", Lang: models.LanguageNative},
		{Word: "huiswerk", Lang: models.LanguageNative},
	}
	var buf bytes.Buffer
	if err := WriteLookupResults(&buf, "hu", entries, OutputText); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "huiswerk") || !strings.HasPrefix(lines[0], "native") {
		t.Errorf("unexpected text output: %q", lines)
	}

	buf.Reset()
	if err := WriteLookupResults(&buf, "hu", entries, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"word": "huiswerk"`) {
		t.Errorf("unexpected json output: %s", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	s := Status{Topics: 2, Lemmas: 10, Words: 25, AutocompleteEntries: 20, DiskUsageBytes: 3 << 20}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Topics:               2", "Lemmas:               10", "3.0 MiB"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status output missing %q:\n%s", sub, buf.String())
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
