package types

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	if got := KindTruncated.String(); got != "TRUNCATED" {
		t.Fatalf("unexpected truncated string: %q", got)
	}
	if got := Kind(99).String(); got != "MALFORMED" {
		t.Fatalf("unexpected default kind string: %q", got)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrUnknownTag, KindUnknownTag},
		{&FieldError{Field: FieldAmount, Err: ErrMalformed}, KindMalformed},
		{&FieldError{Field: "X", Err: ErrUnknownKey}, KindUnknownKey},
		{io.ErrClosedPipe, KindIO},
		{NewDecodeError("bin", AtOffset(3), ErrTruncated), KindTruncated},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDecodeErrorMatchesSentinel(t *testing.T) {
	cause := &FieldError{Field: FieldType, Value: "SWAP", Err: ErrUnknownTag}
	err := error(NewDecodeError("csv", AtLine(3), cause))

	if !errors.Is(err, ErrUnknownTag) {
		t.Fatal("expected errors.Is(ErrUnknownTag)")
	}
	if errors.Is(err, ErrTruncated) {
		t.Fatal("did not expect errors.Is(ErrTruncated)")
	}

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if de.Field != FieldType {
		t.Fatalf("Field = %q, want %q", de.Field, FieldType)
	}
	msg := err.Error()
	if !strings.Contains(msg, "csv") || !strings.Contains(msg, "line 3") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestDecodeErrorIOKind(t *testing.T) {
	err := NewDecodeError("text", Locator{}, io.ErrClosedPipe)
	if err.Kind != KindIO {
		t.Fatalf("Kind = %v, want IO", err.Kind)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Fatal("expected the cause to be reachable")
	}
}

func TestLocatorString(t *testing.T) {
	tests := []struct {
		loc  Locator
		want string
	}{
		{AtLine(4), "line 4"},
		{AtBlock(2, 17), "block 2 (line 17)"},
		{AtOffset(46), "offset 46"},
		{AtRecord(0), "record 0"},
		{AtRow(9), "row 9"},
		{Locator{}, ""},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("Locator.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEncodeError(t *testing.T) {
	root := io.ErrShortWrite
	err := NewEncodeError("bin", 2, root)
	if !errors.Is(err, root) {
		t.Fatal("expected wrapped error")
	}
	if got := err.Error(); got != "bin: encode record 2: short write" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := NewEncodeError("csv", -1, root).Error(); got != "csv: encode: short write" {
		t.Fatalf("unexpected message: %q", got)
	}
}
