package formats

import (
	"io"
	"testing"

	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

type stubCodec struct {
	name string
	exts []string
}

func (s *stubCodec) Name() string         { return s.name }
func (s *stubCodec) Extensions() []string { return s.exts }
func (s *stubCodec) Decode(io.Reader) ([]types.Transaction, error) {
	return nil, nil
}
func (s *stubCodec) Encode(io.Writer, []types.Transaction) error { return nil }

func init() {
	Register(&stubCodec{name: "stubfmt", exts: []string{".stub"}}, "stub-alias")
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"stubfmt", "STUBFMT", " stub-alias "} {
		c, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if c.Name() != "stubfmt" {
			t.Fatalf("Lookup(%q) returned %q", name, c.Name())
		}
	}
	if _, err := Lookup("nope"); err == nil {
		t.Fatal("expected error for an unknown format")
	}
}

func TestDetect(t *testing.T) {
	if c := Detect("data/history.STUB"); c == nil || c.Name() != "stubfmt" {
		t.Fatalf("Detect did not match by extension: %v", c)
	}
	if c := Detect("history"); c != nil {
		t.Fatalf("Detect without extension = %v, want nil", c)
	}
}

func TestResolve(t *testing.T) {
	c, err := Resolve("", "x.stub")
	if err != nil || c.Name() != "stubfmt" {
		t.Fatalf("Resolve by extension = %v, %v", c, err)
	}
	if _, err := Resolve("", "x.unknown"); err == nil {
		t.Fatal("expected error when the format cannot be detected")
	}
	if _, err := Resolve("nope", "x.stub"); err == nil {
		t.Fatal("an explicit unknown name must not fall back to detection")
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register(&stubCodec{name: "stubfmt"})
}

func TestAllSorted(t *testing.T) {
	all := All()
	names := Names()
	if len(all) != len(names) {
		t.Fatalf("All() has %d codecs, Names() has %d", len(all), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
