package xlsxcodec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ypbank-converter/internal/fixtures"
	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// workbook builds an .xlsx with the given rows on a sheet named sheet.
func workbook(t *testing.T, sheet string, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+1, row); err != nil {
			t.Fatalf("setRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return &buf
}

func TestRoundTrip(t *testing.T) {
	for name, txs := range map[string][]types.Transaction{
		"history": fixtures.History(),
		"awkward": fixtures.Awkward(),
		"empty":   {},
	} {
		var buf bytes.Buffer
		if err := (Codec{}).Encode(&buf, txs); err != nil {
			t.Fatalf("%s: Encode: %v", name, err)
		}
		got, err := Codec{}.Decode(&buf)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !reflect.DeepEqual(got, txs) {
			t.Fatalf("%s: round trip mismatch\n got: %+v\nwant: %+v", name, got, txs)
		}
	}
}

func TestEncodeUsesConfiguredSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := New("Ledger").Encode(&buf, fixtures.History()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !reflect.DeepEqual(got, []string{"Ledger"}) {
		t.Fatalf("sheets = %v", got)
	}
	v, err := f.GetCellValue("Ledger", "A2")
	if err != nil || v != "1001" {
		t.Fatalf("A2 = %q, %v", v, err)
	}
}

func TestDecodeFallsBackToFirstSheet(t *testing.T) {
	rows := [][]string{types.FieldNames, fixtures.Transfer().Record()}
	got, err := Codec{}.Decode(workbook(t, "Export", rows))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(fixtures.Transfer()) {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeSkipsEmptyRowsAndPadsDescription(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = ""
	rec := tx.Record()[:7]

	rows := [][]string{{}, types.FieldNames, {}, rec}
	got, err := Codec{}.Decode(workbook(t, DefaultSheet, rows))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(tx) {
		t.Fatalf("got %+v, want %+v", got, tx)
	}
}

func TestDecodeErrors(t *testing.T) {
	bad := fixtures.Transfer().Record()
	bad[4] = "1.5"
	extra := append(fixtures.Transfer().Record(), "surplus")
	renamed := append([]string(nil), types.FieldNames...)
	renamed[0] = "ID"

	tests := []struct {
		name  string
		input *bytes.Buffer
		want  error
		row   int64
	}{
		{"not a workbook", bytes.NewBufferString("TX_ID,TX_TYPE\n"), types.ErrFormat, 0},
		{"empty sheet", workbook(t, DefaultSheet, nil), types.ErrFormat, 1},
		{"renamed header", workbook(t, DefaultSheet, [][]string{renamed}), types.ErrFormat, 1},
		{"bad amount", workbook(t, DefaultSheet, [][]string{types.FieldNames, fixtures.Transfer().Record(), bad}), types.ErrMalformed, 3},
		{"extra cell", workbook(t, DefaultSheet, [][]string{types.FieldNames, extra}), types.ErrMalformed, 2},
	}
	for _, tt := range tests {
		got, err := Codec{}.Decode(tt.input)
		if got != nil {
			t.Fatalf("%s: partial result returned with error", tt.name)
		}
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: error %v does not match %v", tt.name, err, tt.want)
		}
		var de *types.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: expected *types.DecodeError, got %T", tt.name, err)
		}
		if tt.row > 0 && (de.Loc.Unit != types.UnitRow || de.Loc.Pos != tt.row) {
			t.Errorf("%s: locator = %v, want row %d", tt.name, de.Loc, tt.row)
		}
	}
}

func TestEncodeRejectsOversizedDescription(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = strings.Repeat("x", excelize.TotalCellChars+1)
	var ee *types.EncodeError
	if err := (Codec{}).Encode(&bytes.Buffer{}, []types.Transaction{tx}); !errors.As(err, &ee) || ee.Index != 0 {
		t.Fatalf("expected EncodeError for record 0, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	if c, err := formats.Lookup("excel"); err != nil || c.Name() != Name {
		t.Fatalf("Lookup(excel) = %v, %v", c, err)
	}
	if d := formats.Detect("book.xlsx"); d == nil || d.Name() != Name {
		t.Fatal("xlsx codec not detected by extension")
	}
}
