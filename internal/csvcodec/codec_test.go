package csvcodec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ginjaninja78/ypbank-converter/internal/fixtures"
	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

const header = "TX_ID,TX_TYPE,FROM_USER_ID,TO_USER_ID,AMOUNT,TIMESTAMP,STATUS,DESCRIPTION\n"

func TestRoundTrip(t *testing.T) {
	for name, txs := range map[string][]types.Transaction{
		"history": fixtures.History(),
		"awkward": fixtures.Awkward(),
		"empty":   {},
	} {
		var buf bytes.Buffer
		if err := Encode(&buf, txs); err != nil {
			t.Fatalf("%s: Encode: %v", name, err)
		}
		got, err := Decode(&buf)
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !reflect.DeepEqual(got, txs) {
			t.Fatalf("%s: round trip mismatch\n got: %+v\nwant: %+v", name, got, txs)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, fixtures.History()[:2]); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := header +
		"1001,DEPOSIT,0,501,50000,1672531200000,SUCCESS,Initial account funding\n" +
		"1002,TRANSFER,501,502,15000,1672534800000,FAILURE,\"Payment for services, invoice #123\"\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeDoublesQuotes(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = `say "hi"`
	var buf bytes.Buffer
	if err := Encode(&buf, []types.Transaction{tx}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `,"say ""hi"""`) {
		t.Fatalf("quotes not doubled: %q", buf.String())
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	got, err := Decode(strings.NewReader(header))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty non-nil sequence, got %#v", got)
	}
}

func TestDecodeToleratesBOMAndBlankLines(t *testing.T) {
	input := "\ufeff" + header + "\n" +
		"1001, DEPOSIT, 0, 501, 50000, 1672531200000, SUCCESS, \"Initial account funding\"\n\n"
	got, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := fixtures.History()[:1]
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		line  int64
	}{
		{"empty input", "", types.ErrFormat, 1},
		{"renamed column", strings.Replace(header, "AMOUNT", "SUM", 1), types.ErrFormat, 1},
		{"missing column", "TX_ID,TX_TYPE\n", types.ErrFormat, 1},
		{"lowercase header", strings.ToLower(header), types.ErrFormat, 1},
		{"padded header column", strings.Replace(header, "STATUS", "STATUS ", 1), types.ErrFormat, 1},
		{"invalid utf-8", header + "1,DEPOSIT,0,1,1,1,SUCCESS,caf\xe9\n", types.ErrMalformed, 2},
		{"unknown type", header + "1,SWAP,0,1,1,1,SUCCESS,x\n", types.ErrUnknownTag, 2},
		{"bad number", header + "1,DEPOSIT,0,1,12.5,1,SUCCESS,x\n", types.ErrMalformed, 2},
		{"negative amount", header + "1,DEPOSIT,0,1,-1,1,SUCCESS,x\n", types.ErrMalformed, 2},
		{"column count", header + "1,DEPOSIT,0,1,1,1,SUCCESS\n", types.ErrMalformed, 2},
		{"bad status", header + "1,DEPOSIT,0,1,1,1,SUCCESS,x\n2,DEPOSIT,0,1,1,1,DONE,x\n", types.ErrUnknownTag, 3},
		{"unterminated quote", header + "1,DEPOSIT,0,1,1,1,SUCCESS,\"oops\n", types.ErrMalformed, 0},
	}
	for _, tt := range tests {
		got, err := Decode(strings.NewReader(tt.input))
		if err == nil {
			t.Fatalf("%s: expected error, got %+v", tt.name, got)
		}
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
		if tt.line > 0 && (de.Loc.Unit != types.UnitLine || de.Loc.Pos != tt.line) {
			t.Fatalf("%s: locator = %v, want line %d", tt.name, de.Loc, tt.line)
		}
	}
}

// encoding/csv folds a CRLF inside a quoted field into LF on read.
func TestDecodeFoldsQuotedCRLF(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = "a\r\nb"
	var buf bytes.Buffer
	if err := Encode(&buf, []types.Transaction{tx}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got[0].Description != "a\nb" {
		t.Fatalf("description = %q, want %q", got[0].Description, "a\nb")
	}
}

func TestEncodeRejectsInvalidUTF8(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = "caf\xe9"
	err := Encode(&bytes.Buffer{}, []types.Transaction{tx})
	var ee *types.EncodeError
	if !errors.As(err, &ee) || ee.Index != 0 || !errors.Is(err, types.ErrMalformed) {
		t.Fatalf("expected malformed EncodeError for record 0, got %v", err)
	}
}

func TestEncodeRejectsUndefinedEnum(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Type = types.TxType(42)
	err := Encode(&bytes.Buffer{}, []types.Transaction{tx})
	var ee *types.EncodeError
	if !errors.As(err, &ee) || ee.Index != 0 {
		t.Fatalf("expected EncodeError for record 0, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	c, err := formats.Lookup("CSV")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if c.Name() != Name {
		t.Fatalf("unexpected codec %q", c.Name())
	}
	if d := formats.Detect("history.csv"); d == nil || d.Name() != Name {
		t.Fatal("csv codec not detected by extension")
	}
}
