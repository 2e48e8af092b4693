// Package fileid derives document keys from content file names of the form
// "<publication>.<article>.md".
package fileid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Extension is the only file extension treated as content.
const Extension = ".md"

// IndexArticle names the publication-level listing document.
const IndexArticle = "index"

// ErrInvalidFilename is returned for names that are not "<publication>.<article>.md".
var ErrInvalidFilename = errors.New("invalid content file name")

// Key identifies a source document.
type Key struct {
	Publication string
	Article     string
}

// String returns "<publication>.<article>", the stored topic filename.
func (k Key) String() string {
	return k.Publication + "." + k.Article
}

// IsIndex reports whether the key names a publication listing.
func (k Key) IsIndex() bool {
	return k.Article == IndexArticle
}

// Parse parses "<publication>.<article>" (with or without the .md extension).
func Parse(s string) (Key, error) {
	name := strings.TrimSuffix(s, Extension)
	pub, article, ok := strings.Cut(name, ".")
	if !ok || pub == "" || article == "" || strings.Contains(article, ".") || strings.ContainsAny(name, `/\`) {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidFilename, s)
	}
	return Key{Publication: pub, Article: article}, nil
}

// FromPath returns the key for a content file path. The file must carry the
// .md extension.
func FromPath(path string) (Key, error) {
	base := filepath.Base(filepath.Clean(path))
	if !IsContentFile(base) {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidFilename, base)
	}
	return Parse(base)
}

// IsContentFile reports whether path has the content extension.
func IsContentFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}
