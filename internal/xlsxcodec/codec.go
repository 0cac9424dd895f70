// =============================================================================
// YPBank Converter - XLSX Codec
// =============================================================================
//
// This module reads and writes transaction workbooks. The layout mirrors the
// CSV format so that a CSV export opened in a spreadsheet and saved as .xlsx
// decodes to the same sequence:
//
//   | A     | B       | C            | D          | E      | F         | G      | H           |
//   |-------|---------|--------------|------------|--------|-----------|--------|-------------|
//   | TX_ID | TX_TYPE | FROM_USER_ID | TO_USER_ID | AMOUNT | TIMESTAMP | STATUS | DESCRIPTION |
//   | 1001  | DEPOSIT | 0            | 501        | 50000  | 167253... | SUCCESS| Initial ... |
//
// NOTES:
//   - Every value is written as a text cell. Spreadsheet numbers are doubles
//     and cannot hold a full 64-bit id or amount.
//   - Numeric cells typed in by hand are read by their raw value, not by
//     their display format.
//   - Decoding uses the configured sheet, or the first sheet when the
//     workbook has no sheet of that name. Empty rows are skipped.
//
// =============================================================================

package xlsxcodec

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Name is the registered format name.
const Name = "xlsx"

// DefaultSheet is the sheet written when no other name is configured.
const DefaultSheet = "Transactions"

func init() {
	formats.Register(Codec{}, "excel")
}

// Codec implements formats.Codec for XLSX workbooks.
type Codec struct {
	// Sheet is the worksheet to read and write. Empty means DefaultSheet.
	Sheet string
}

// New returns a codec bound to the given sheet name.
func New(sheet string) Codec {
	return Codec{Sheet: sheet}
}

func (Codec) Name() string         { return Name }
func (Codec) Extensions() []string { return []string{".xlsx"} }

func (c Codec) sheet() string {
	if c.Sheet == "" {
		return DefaultSheet
	}
	return c.Sheet
}

// =============================================================================
// DECODING
// =============================================================================

// Decode reads the workbook and returns its transactions.
//
// RETURNS:
//   - The transactions in row order (never nil on success).
//   - A *types.DecodeError carrying the 1-based row of the failure.
func (c Codec) Decode(r io.Reader) ([]types.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, types.NewDecodeError(Name, types.Locator{},
			fmt.Errorf("%w: not a workbook: %v", types.ErrFormat, err))
	}
	defer f.Close()

	sheet := c.sheet()
	if !slices.Contains(f.GetSheetList(), sheet) {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, types.NewDecodeError(Name, types.Locator{},
			fmt.Errorf("%w: workbook has no sheets", types.ErrFormat))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, types.NewDecodeError(Name, types.Locator{}, err)
	}

	txs := []types.Transaction{}
	headerSeen := false
	for i, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		loc := types.AtRow(i + 1)

		if !headerSeen {
			if err := checkHeader(row); err != nil {
				return nil, types.NewDecodeError(Name, loc, err)
			}
			headerSeen = true
			continue
		}

		tx, err := types.FromRecord(normalizeRow(row))
		if err != nil {
			return nil, types.NewDecodeError(Name, loc, err)
		}
		txs = append(txs, tx)
	}

	if !headerSeen {
		return nil, types.NewDecodeError(Name, types.AtRow(1),
			fmt.Errorf("%w: sheet %q has no header row", types.ErrFormat, sheet))
	}
	return txs, nil
}

// normalizeRow pads a row that lost its trailing empty cells and drops empty
// cells past the last column, so that the column count check only fires on
// real extra data.
func normalizeRow(row []string) []string {
	n := len(types.FieldNames)
	if len(row) < n {
		padded := make([]string, n)
		copy(padded, row)
		return padded
	}
	if len(row) > n && isRowEmpty(row[n:]) {
		return row[:n]
	}
	return row
}

func checkHeader(row []string) error {
	row = normalizeRow(row)
	if len(row) != len(types.FieldNames) {
		return fmt.Errorf("%w: header has %d columns, expected %d", types.ErrFormat, len(row), len(types.FieldNames))
	}
	for i, want := range types.FieldNames {
		if got := strings.ToUpper(strings.TrimSpace(row[i])); got != want {
			return fmt.Errorf("%w: header column %d is %q, expected %q", types.ErrFormat, i+1, row[i], want)
		}
	}
	return nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes a single-sheet workbook with a header row and one row per
// transaction.
func (c Codec) Encode(w io.Writer, txs []types.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := c.sheet()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}

	if err := setRow(f, sheet, 1, types.FieldNames); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
		if n := utf8.RuneCountInString(tx.Description); n > excelize.TotalCellChars {
			return types.NewEncodeError(Name, i, fmt.Errorf(
				"description has %d characters, a cell holds at most %d", n, excelize.TotalCellChars))
		}
		if err := setRow(f, sheet, i+2, tx.Record()); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
