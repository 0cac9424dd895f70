// =============================================================================
// YPBank Converter - CSV Codec
// =============================================================================
//
// This module reads and writes the delimited text table format:
//
//   TX_ID,TX_TYPE,FROM_USER_ID,TO_USER_ID,AMOUNT,TIMESTAMP,STATUS,DESCRIPTION
//   1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,Initial account funding
//   1002,TRANSFER,501,502,15000,1672534800000,FAILURE,"Rent, March"
//
// RULES:
//   - The first non-empty line is the header and must list the eight columns
//     in the documented order, spelled exactly. A UTF-8 byte order mark is
//     tolerated.
//   - DESCRIPTION must be valid UTF-8.
//   - A CRLF inside a quoted DESCRIPTION reads back as LF (encoding/csv).
//   - Fields are separated by a single comma. DESCRIPTION is quoted when it
//     contains a comma, a quote or a line break; embedded quotes are doubled.
//   - Decoding stops at the first bad line. There is no best-effort recovery.
//   - A header with no data lines decodes to an empty sequence.
//
// =============================================================================

package csvcodec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Name is the registered format name.
const Name = "csv"

func init() {
	formats.Register(Codec{})
}

// Codec implements formats.Codec for CSV.
type Codec struct{}

func (Codec) Name() string         { return Name }
func (Codec) Extensions() []string { return []string{".csv"} }

func (Codec) Decode(r io.Reader) ([]types.Transaction, error) { return Decode(r) }

func (Codec) Encode(w io.Writer, txs []types.Transaction) error { return Encode(w, txs) }

// =============================================================================
// DECODING
// =============================================================================

// Decode reads a CSV table and returns its transactions.
//
// RETURNS:
//   - The transactions in file order (never nil on success).
//   - A *types.DecodeError carrying the 1-based line number of the failure.
func Decode(r io.Reader) ([]types.Transaction, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, types.NewDecodeError(Name, types.AtLine(1),
			fmt.Errorf("%w: missing header", types.ErrFormat))
	}
	if err != nil {
		return nil, readError(err)
	}

	line, _ := reader.FieldPos(0)
	if err := checkHeader(header); err != nil {
		return nil, types.NewDecodeError(Name, types.AtLine(line), err)
	}

	txs := []types.Transaction{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readError(err)
		}

		line, _ = reader.FieldPos(0)
		tx, err := types.FromRecord(record)
		if err != nil {
			return nil, types.NewDecodeError(Name, types.AtLine(line), err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// configureReader sets the reader up for strict RFC 4180 input.
//
// The column count is checked per record by types.FromRecord so that the
// error carries our own locator, hence FieldsPerRecord = -1.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = false
	reader.TrimLeadingSpace = true
}

// checkHeader confirms the expected column set and order. Column names are
// compared exactly; only a byte order mark on the first column is dropped.
func checkHeader(header []string) error {
	if len(header) != len(types.FieldNames) {
		return fmt.Errorf("%w: header has %d columns, expected %d (%s)",
			types.ErrFormat, len(header), len(types.FieldNames), strings.Join(types.FieldNames, ","))
	}
	for i, want := range types.FieldNames {
		got := header[i]
		if i == 0 {
			got = strings.TrimPrefix(got, "\ufeff")
		}
		if got != want {
			return fmt.Errorf("%w: header column %d is %q, expected %q",
				types.ErrFormat, i+1, got, want)
		}
	}
	return nil
}

// readError converts an encoding/csv failure into a DecodeError.
func readError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return types.NewDecodeError(Name, types.AtLine(pe.Line),
			fmt.Errorf("%w: %v", types.ErrMalformed, pe.Err))
	}
	return types.NewDecodeError(Name, types.Locator{}, err)
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes the header and one line per transaction.
func Encode(w io.Writer, txs []types.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(types.FieldNames); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
		if err := writer.Write(tx.Record()); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	return nil
}
