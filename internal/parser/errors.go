package parser

import "fmt"

// MissingAttribute is returned when a required front matter field is absent.
type MissingAttribute struct {
	Field string
}

func (e *MissingAttribute) Error() string {
	return fmt.Sprintf("missing required attribute %q", e.Field)
}

// MalformedFrontMatter is returned when the metadata block is not valid YAML
// or an attribute has the wrong type.
type MalformedFrontMatter struct {
	Field string
	Err   error
}

func (e *MalformedFrontMatter) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed front matter attribute %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed front matter: %v", e.Err)
}

func (e *MalformedFrontMatter) Unwrap() error { return e.Err }

// MalformedTableDivider is returned when a table header is not followed by a
// divider line. Line is empty when the input ended right after the header.
type MalformedTableDivider struct {
	Line string
}

func (e *MalformedTableDivider) Error() string {
	if e.Line == "" {
		return "expected a table divider after header, got end of input or blank line"
	}
	return fmt.Sprintf("expected a table divider after header, got %q", e.Line)
}

// CellCountMismatch is returned when a table row has a different number of
// cells than the header.
type CellCountMismatch struct {
	Line string
	Want int
	Got  int
}

func (e *CellCountMismatch) Error() string {
	return fmt.Sprintf("table row %q has %d cells, header has %d", e.Line, e.Got, e.Want)
}

// UnrecognizedColumn is returned when a header names a column that does not
// fit the native | foreign | roman convention.
type UnrecognizedColumn struct {
	Line   string
	Column string
}

func (e *UnrecognizedColumn) Error() string {
	return fmt.Sprintf("unrecognized column %q in table header %q", e.Column, e.Line)
}
