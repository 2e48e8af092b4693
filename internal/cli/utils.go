// Package cli provides output helpers for the lexicon command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/pkg/utils"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Status is the summary printed by the status command.
type Status struct {
	Topics              int64  `json:"topics"`
	Lemmas              int64  `json:"lemmas"`
	Words               int64  `json:"words"`
	AutocompleteEntries uint64 `json:"autocomplete_entries"`
	DiskUsageBytes      int64  `json:"disk_usage_bytes"`
	ContentDirectory    string `json:"content_directory"`
}

// WriteSearchResults writes exact search hits to w in the given format.
func WriteSearchResults(w io.Writer, word string, hits []*models.LemmaHit, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"word": word, "results": hits, "total": len(hits)})
	}
	fmt.Fprintf(w, "\nFound %d lemmas for %q\n\n", len(hits), word)
	topic := ""
	for _, h := range hits {
		if h.TopicFilename != topic {
			topic = h.TopicFilename
			fmt.Fprintf(w, "── %s: %s\n", topic, utils.Truncate(h.Title, 60))
		}
		line := fmt.Sprintf("  %3d  %s  =  %s", h.Position, h.Native, h.Foreign)
		if h.Roman != "" {
			line += "  (" + h.Roman + ")"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// WriteLookupResults writes prefix lookup entries to w in the given format.
func WriteLookupResults(w io.Writer, prefix string, entries []models.AutoCompleteEntry, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"prefix": prefix, "results": entries})
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-8s %s\n", e.Lang, e.Word)
	}
	return nil
}

// WriteStatus writes the status summary to w in the given format.
func WriteStatus(w io.Writer, s Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Topics:               %d\n", s.Topics)
	fmt.Fprintf(w, "Lemmas:               %d\n", s.Lemmas)
	fmt.Fprintf(w, "Words:                %d\n", s.Words)
	fmt.Fprintf(w, "Autocomplete entries: %d\n", s.AutocompleteEntries)
	fmt.Fprintf(w, "Disk usage:           %s\n", FormatBytes(s.DiskUsageBytes))
	if s.ContentDirectory != "" {
		fmt.Fprintf(w, "Content directory:    %s\n", s.ContentDirectory)
	}
	return nil
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
