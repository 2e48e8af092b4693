package fileid

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Key
		wantErr bool
	}{
		{"lessen.les-01", Key{"lessen", "les-01"}, false},
		{"lessen.les-01.md", Key{"lessen", "les-01"}, false},
		{"lessen.index", Key{"lessen", "index"}, false},
		{"lessen", Key{}, true},
		{".les-01", Key{}, true},
		{"lessen.", Key{}, true},
		{"a.b.c", Key{}, true},
		{"sub/lessen.les", Key{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidFilename) {
				t.Errorf("expected ErrInvalidFilename, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKey_RoundTrip(t *testing.T) {
	k := Key{Publication: "lessen", Article: "les-02"}
	if k.String() != "lessen.les-02" {
		t.Errorf("String() = %q", k.String())
	}
	if got, err := FromPath("/content/" + k.String() + Extension); err != nil || got != k {
		t.Errorf("FromPath() = %+v, %v", got, err)
	}
	got, err := Parse(k.String())
	if err != nil || got != k {
		t.Errorf("Parse(String()) = %+v, %v", got, err)
	}
	if k.IsIndex() {
		t.Error("les-02 is not an index article")
	}
	if !(Key{"lessen", "index"}).IsIndex() {
		t.Error("index article should report IsIndex")
	}
}

func TestFromPath(t *testing.T) {
	k, err := FromPath(filepath.Join("/content", "lessen.les-01.md"))
	if err != nil {
		t.Fatal(err)
	}
	if k.String() != "lessen.les-01" {
		t.Errorf("got %q", k.String())
	}
	if _, err := FromPath("/content/lessen.les-01.txt"); err == nil {
		t.Error("non-markdown file should be rejected")
	}
}
