// =============================================================================
// YPBank Converter - Text Codec
// =============================================================================
//
// This module reads and writes the human-readable block format. Every record
// is a block of KEY: VALUE lines and blocks are separated by a blank line:
//
//   TX_ID: 1001
//   TX_TYPE: DEPOSIT
//   FROM_USER_ID: 0
//   TO_USER_ID: 501
//   AMOUNT: 50000
//   TIMESTAMP: 1672531200000
//   STATUS: SUCCESS
//   DESCRIPTION: "Initial account funding"
//
// RULES:
//   - Keys are matched by label, so the order of lines inside a block is free.
//     The encoder always writes them in the column order of the CSV format.
//   - A line is split at its first colon; key and value are trimmed.
//   - Lines starting with '#' are comments. Several blank lines in a row are
//     the same as one.
//   - DESCRIPTION is written as a quoted literal with backslash escapes, so
//     quotes and line breaks survive a round trip.
//
// =============================================================================

package textcodec

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Name is the registered format name.
const Name = "text"

func init() {
	formats.Register(Codec{}, "txt")
}

// Codec implements formats.Codec for the block format.
type Codec struct{}

func (Codec) Name() string         { return Name }
func (Codec) Extensions() []string { return []string{".txt", ".text"} }

func (Codec) Decode(r io.Reader) ([]types.Transaction, error) { return Decode(r) }

func (Codec) Encode(w io.Writer, txs []types.Transaction) error { return Encode(w, txs) }

// =============================================================================
// DECODING
// =============================================================================

// block collects the lines of the record being decoded.
type block struct {
	index int // 0-based block index
	start int // line of the first key
	tx    types.Transaction
	seen  map[string]int
}

func (b *block) open() bool { return len(b.seen) > 0 }

// Decode reads blocks until end of input.
//
// RETURNS:
//   - The transactions in file order (never nil on success).
//   - A *types.DecodeError whose locator carries the 0-based block index and
//     the 1-based line of the offending key (or of the block start when a key
//     is missing).
func Decode(r io.Reader) ([]types.Transaction, error) {
	reader := bufio.NewReader(r)

	txs := []types.Transaction{}
	cur := &block{seen: map[string]int{}}
	lineNo := 0

	finish := func() error {
		if !cur.open() {
			return nil
		}
		if missing := cur.missing(); len(missing) > 0 {
			return types.NewDecodeError(Name, types.AtBlock(cur.index, cur.start), &types.FieldError{
				Field: missing[0],
				Err:   fmt.Errorf("%w: %s", types.ErrMissingKey, strings.Join(missing, ", ")),
			})
		}
		txs = append(txs, cur.tx)
		cur = &block{index: cur.index + 1, seen: map[string]int{}}
		return nil
	}

	for {
		raw, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, types.NewDecodeError(Name, types.AtBlock(cur.index, lineNo+1), readErr)
		}
		if raw == "" && readErr == io.EOF {
			break
		}
		lineNo++

		line := strings.TrimRight(raw, "\r\n")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			if err := finish(); err != nil {
				return nil, err
			}
		case strings.HasPrefix(trimmed, "#"):
			// comment
		default:
			if err := cur.add(line, lineNo); err != nil {
				return nil, err
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return txs, nil
}

// add parses one KEY: VALUE line into the current block.
func (b *block) add(line string, lineNo int) error {
	loc := types.AtBlock(b.index, lineNo)

	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return types.NewDecodeError(Name, loc,
			fmt.Errorf("%w: expected KEY: VALUE, got %q", types.ErrMalformed, line))
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if !types.IsField(key) {
		return types.NewDecodeError(Name, loc, &types.FieldError{Field: key, Value: value, Err: types.ErrUnknownKey})
	}
	if first, dup := b.seen[key]; dup {
		return types.NewDecodeError(Name, loc, &types.FieldError{
			Field: key,
			Value: value,
			Err:   fmt.Errorf("%w: first seen on line %d", types.ErrDuplicateKey, first),
		})
	}

	if key == types.FieldDescription {
		// Unquoting would turn stray bytes into U+FFFD.
		if err := types.CheckDescription(value); err != nil {
			return types.NewDecodeError(Name, loc, &types.FieldError{Field: key, Err: err})
		}
		value = unquoteDescription(value)
	}
	if err := b.tx.SetField(key, value); err != nil {
		return types.NewDecodeError(Name, loc, err)
	}

	if len(b.seen) == 0 {
		b.start = lineNo
	}
	b.seen[key] = lineNo
	return nil
}

func (b *block) missing() []string {
	var out []string
	for _, f := range types.FieldNames {
		if _, ok := b.seen[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// unquoteDescription accepts a quoted literal with escapes, falls back to
// stripping plain outer quotes, and otherwise keeps the value as written.
func unquoteDescription(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		if s, err := strconv.Unquote(value); err == nil {
			return s
		}
		return value[1 : len(value)-1]
	}
	return value
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes one block per transaction.
func Encode(w io.Writer, txs []types.Transaction) error {
	bw := bufio.NewWriter(w)

	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
		if i > 0 {
			bw.WriteByte('\n')
		}
		writeBlock(bw, tx)
	}

	// bufio.Writer keeps the first write error and reports it here.
	if err := bw.Flush(); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	return nil
}

// FormatBlock renders a single transaction as a block, without a trailing
// blank line.
func FormatBlock(tx types.Transaction) string {
	var sb strings.Builder
	writeBlock(&sb, tx)
	return sb.String()
}

type stringWriter interface {
	WriteString(s string) (int, error)
}

func writeBlock(w stringWriter, tx types.Transaction) {
	record := tx.Record()
	for i, name := range types.FieldNames {
		value := record[i]
		if name == types.FieldDescription {
			value = strconv.Quote(value)
		}
		w.WriteString(name)
		w.WriteString(": ")
		w.WriteString(value)
		w.WriteString("\n")
	}
}
