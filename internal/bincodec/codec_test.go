package bincodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/ginjaninja78/ypbank-converter/internal/fixtures"
	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

func encode(t *testing.T, txs []types.Transaction) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, txs); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for name, txs := range map[string][]types.Transaction{
		"history": fixtures.History(),
		"awkward": fixtures.Awkward(),
		"empty":   {},
	} {
		got, err := Decode(bytes.NewReader(encode(t, txs)))
		if err != nil {
			t.Fatalf("%s: Decode: %v", name, err)
		}
		if !reflect.DeepEqual(got, txs) {
			t.Fatalf("%s: round trip mismatch\n got: %+v\nwant: %+v", name, got, txs)
		}
	}
}

func TestFrameLayout(t *testing.T) {
	tx := fixtures.Transfer()
	b := encode(t, []types.Transaction{tx})

	if len(b) != FixedFrameSize+len(tx.Description) {
		t.Fatalf("frame is %d bytes, want %d", len(b), FixedFrameSize+len(tx.Description))
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"id", le.Uint64(b[0:]), tx.ID},
		{"type", uint64(b[8]), 2},
		{"from", le.Uint64(b[9:]), tx.FromUser},
		{"to", le.Uint64(b[17:]), tx.ToUser},
		{"amount", le.Uint64(b[25:]), tx.Amount},
		{"timestamp", le.Uint64(b[33:]), tx.Timestamp},
		{"status", uint64(b[41]), 1},
		{"desc len", uint64(le.Uint32(b[42:])), uint64(len(tx.Description))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if string(b[46:]) != tx.Description {
		t.Errorf("description bytes = %q", b[46:])
	}
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected an empty non-nil sequence, got %#v", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := encode(t, fixtures.History())
	first := FixedFrameSize + len(fixtures.History()[0].Description)

	tests := []struct {
		name   string
		cut    int
		offset int64
		field  string
	}{
		{"inside id", 5, 0, types.FieldID},
		{"before type", 8, 8, types.FieldType},
		{"before description bytes", FixedFrameSize, FixedFrameSize, types.FieldDescription},
		{"inside description", FixedFrameSize + 3, FixedFrameSize, types.FieldDescription},
		{"second frame from", first + 10, int64(first + 9), types.FieldFromUser},
		{"last byte missing", len(full) - 1, int64(len(full) - len("ATM withdrawal")), types.FieldDescription},
	}
	for _, tt := range tests {
		got, err := Decode(bytes.NewReader(full[:tt.cut]))
		if got != nil {
			t.Fatalf("%s: partial result returned with error", tt.name)
		}
		if !errors.Is(err, types.ErrTruncated) {
			t.Fatalf("%s: error %v is not ErrTruncated", tt.name, err)
		}
		var de *types.DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("%s: expected *types.DecodeError, got %T", tt.name, err)
		}
		if de.Loc.Unit != types.UnitOffset || de.Loc.Pos != tt.offset {
			t.Errorf("%s: locator = %v, want offset %d", tt.name, de.Loc, tt.offset)
		}
		if de.Field != tt.field {
			t.Errorf("%s: field = %q, want %q", tt.name, de.Field, tt.field)
		}
	}
}

func TestDecodeHugeLengthPrefix(t *testing.T) {
	frame, err := AppendFrame(nil, fixtures.Transfer())
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	frame = frame[:FixedFrameSize]
	binary.LittleEndian.PutUint32(frame[42:], 0xFFFFFFFF)
	frame = append(frame, "abc"...)

	_, err = Decode(bytes.NewReader(frame))
	if !errors.Is(err, types.ErrTruncated) {
		t.Fatalf("error %v is not ErrTruncated", err)
	}
}

func TestDecodeUnknownTags(t *testing.T) {
	base, err := AppendFrame(nil, fixtures.Transfer())
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}

	tests := []struct {
		name  string
		at    int
		value byte
		field string
	}{
		{"type 3", 8, 3, types.FieldType},
		{"type 255", 8, 0xff, types.FieldType},
		{"status 3", 41, 3, types.FieldStatus},
	}
	for _, tt := range tests {
		frame := append([]byte(nil), base...)
		frame[tt.at] = tt.value

		_, err := Decode(bytes.NewReader(frame))
		if !errors.Is(err, types.ErrUnknownTag) {
			t.Fatalf("%s: error %v is not ErrUnknownTag", tt.name, err)
		}
		var de *types.DecodeError
		errors.As(err, &de)
		if de.Loc.Pos != int64(tt.at) || de.Field != tt.field {
			t.Errorf("%s: got %v field %q", tt.name, de.Loc, de.Field)
		}
	}
}

func TestDecodeInvalidUTF8(t *testing.T) {
	tx := fixtures.Transfer()
	tx.Description = ""
	frame, err := AppendFrame(nil, tx)
	if err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	binary.LittleEndian.PutUint32(frame[42:], 2)
	frame = append(frame, 0xff, 0xfe)

	_, err = Decode(bytes.NewReader(frame))
	if !errors.Is(err, types.ErrMalformed) {
		t.Fatalf("error %v is not ErrMalformed", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeErrors(t *testing.T) {
	var ee *types.EncodeError
	if err := Encode(failingWriter{}, fixtures.History()); !errors.As(err, &ee) {
		t.Fatalf("expected EncodeError from a failing writer, got %v", err)
	}

	tx := fixtures.Transfer()
	tx.Status = types.TxStatus(5)
	err := Encode(&bytes.Buffer{}, []types.Transaction{fixtures.Transfer(), tx})
	if !errors.As(err, &ee) || ee.Index != 1 {
		t.Fatalf("expected EncodeError for record 1, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	c, err := formats.Lookup("binary")
	if err != nil || c.Name() != Name {
		t.Fatalf("Lookup(binary) = %v, %v", c, err)
	}
	if d := formats.Detect("records.BIN"); d == nil || d.Name() != Name {
		t.Fatal("bin codec not detected by extension")
	}
}
