package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontMatterMarker = "---"

// Attributes are the front matter fields the pipeline understands. Raw keeps
// every decoded key, nested maps included.
type Attributes struct {
	Title       string
	Subtitle    string
	Restricted  bool
	NativeLang  string
	ForeignLang string
	Raw         map[string]any
}

// SplitFrontMatter separates a leading "---" delimited block from the body.
// Text without a leading marker has no front matter and is returned whole.
func SplitFrontMatter(text string) (block, body string, ok bool) {
	lines := splitLines(text)
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterMarker {
		return "", text, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterMarker {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", text, false
}

// ParseAttributes decodes a YAML block and validates the known fields.
// restricted defaults to true; title is required.
func ParseAttributes(block string) (*Attributes, error) {
	raw := map[string]any{}
	if strings.TrimSpace(block) != "" {
		if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
			return nil, &MalformedFrontMatter{Err: err}
		}
	}
	attrs := &Attributes{Restricted: true, NativeLang: "nl", ForeignLang: "ar", Raw: raw}

	title, err := stringAttr(raw, "title")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, &MissingAttribute{Field: "title"}
	}
	attrs.Title = title

	if attrs.Subtitle, err = stringAttr(raw, "subtitle"); err != nil {
		return nil, err
	}
	if v, ok := raw["restricted"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return nil, &MalformedFrontMatter{Field: "restricted", Err: fmt.Errorf("must be a boolean, got %T", v)}
		}
		attrs.Restricted = b
	}
	if lang, err := langAttr(raw, "nativeLang"); err != nil {
		return nil, err
	} else if lang != "" {
		attrs.NativeLang = lang
	}
	if lang, err := langAttr(raw, "foreignLang"); err != nil {
		return nil, err
	} else if lang != "" {
		attrs.ForeignLang = lang
	}
	return attrs, nil
}

// langAttr reads a language code. The code doubles as a table column name,
// so it may not contain a cell separator or whitespace.
func langAttr(raw map[string]any, key string) (string, error) {
	lang, err := stringAttr(raw, key)
	if err != nil {
		return "", err
	}
	if strings.ContainsAny(lang, "| \t") {
		return "", &MalformedFrontMatter{Field: key, Err: fmt.Errorf("%q is not usable as a column name", lang)}
	}
	return lang, nil
}

func stringAttr(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", &MalformedFrontMatter{Field: key, Err: fmt.Errorf("must be a string, got %T", v)}
	}
	return s, nil
}
