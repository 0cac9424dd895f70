// Package formats defines the Codec interface and a registry for the
// transaction formats. Each format package implements Codec and calls
// Register from its init function; callers select a codec by name or fall
// back to detection by file extension. Formats are never sniffed from
// content because the binary layout carries no magic number.
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Codec decodes and encodes a whole transaction sequence in one format.
type Codec interface {
	// Name returns the registered format name (e.g. "csv").
	Name() string

	// Extensions returns file extensions this codec handles, including the
	// leading dot.
	Extensions() []string

	// Decode reads the stream to its end. On failure it returns a
	// *types.DecodeError and no transactions.
	Decode(r io.Reader) ([]types.Transaction, error)

	// Encode writes txs to w. On failure it returns a *types.EncodeError.
	Encode(w io.Writer, txs []types.Transaction) error
}

var (
	mu       sync.RWMutex
	registry = map[string]Codec{}
	aliases  = map[string]string{}
)

// Register adds a codec to the registry under its name and any aliases.
// Registering the same name twice panics.
func Register(c Codec, alias ...string) {
	mu.Lock()
	defer mu.Unlock()

	name := strings.ToLower(c.Name())
	if _, dup := registry[name]; dup {
		panic("formats: Register called twice for " + name)
	}
	registry[name] = c
	for _, a := range alias {
		aliases[strings.ToLower(a)] = name
	}
}

// Lookup returns the codec registered under name or one of its aliases.
func Lookup(name string) (Codec, error) {
	mu.RLock()
	defer mu.RUnlock()

	key := strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[key]; ok {
		key = target
	}
	if c, ok := registry[key]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(namesLocked(), ", "))
}

// Detect returns the codec whose extensions match filename, or nil.
func Detect(filename string) Codec {
	mu.RLock()
	defer mu.RUnlock()

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil
	}
	for _, name := range namesLocked() {
		c := registry[name]
		for _, e := range c.Extensions() {
			if ext == e {
				return c
			}
		}
	}
	return nil
}

// Resolve picks the codec for a file: an explicit name wins, otherwise the
// file extension decides.
func Resolve(name, filename string) (Codec, error) {
	if name != "" {
		return Lookup(name)
	}
	if c := Detect(filename); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("cannot detect format of %q; pass it explicitly (known: %s)", filename, strings.Join(Names(), ", "))
}

// All returns every registered codec sorted by name.
func All() []Codec {
	mu.RLock()
	defer mu.RUnlock()

	names := namesLocked()
	out := make([]Codec, 0, len(names))
	for _, n := range names {
		out = append(out, registry[n])
	}
	return out
}

// Names returns the sorted registered format names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
