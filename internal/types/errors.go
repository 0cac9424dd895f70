// =============================================================================
// YPBank Converter - Codec Errors
// =============================================================================
//
// Error types shared by every codec.
//
// RULES:
//   - Decoders return a *DecodeError locating the failure (line, block,
//     byte offset, record or row) and stop there.
//   - Encoders return an *EncodeError naming the record being written.
//   - errors.Is matches a DecodeError against the sentinel of its Kind.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every *DecodeError matches exactly one of them through
// errors.Is, according to its Kind.
var (
	ErrFormat       = errors.New("unexpected format")
	ErrMalformed    = errors.New("malformed value")
	ErrUnknownTag   = errors.New("unknown tag")
	ErrTruncated    = errors.New("truncated stream")
	ErrMissingKey   = errors.New("missing key")
	ErrUnknownKey   = errors.New("unknown key")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Kind classifies decode failures.
type Kind int

const (
	KindMalformed    Kind = iota // A value could not be parsed, or a record has the wrong shape.
	KindFormat                   // The stream is not in the expected format (e.g. bad CSV header).
	KindUnknownTag               // An enum name or tag byte is outside its defined set.
	KindTruncated                // The stream ended in the middle of a record.
	KindMissingKey               // A text block lacks a required key.
	KindUnknownKey               // A text block contains a key that is not a field.
	KindDuplicateKey             // A text block repeats a key.
	KindIO                       // The underlying reader failed.
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "FORMAT"
	case KindUnknownTag:
		return "UNKNOWN_TAG"
	case KindTruncated:
		return "TRUNCATED"
	case KindMissingKey:
		return "MISSING_KEY"
	case KindUnknownKey:
		return "UNKNOWN_KEY"
	case KindDuplicateKey:
		return "DUPLICATE_KEY"
	case KindIO:
		return "IO"
	default:
		return "MALFORMED"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindFormat:
		return ErrFormat
	case KindUnknownTag:
		return ErrUnknownTag
	case KindTruncated:
		return ErrTruncated
	case KindMissingKey:
		return ErrMissingKey
	case KindUnknownKey:
		return ErrUnknownKey
	case KindDuplicateKey:
		return ErrDuplicateKey
	case KindIO:
		return nil
	default:
		return ErrMalformed
	}
}

// KindOf infers the Kind of err from the sentinel it wraps. Errors that wrap
// no sentinel are treated as I/O failures of the underlying stream.
func KindOf(err error) Kind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	for _, k := range []Kind{KindFormat, KindUnknownTag, KindTruncated, KindMissingKey, KindUnknownKey, KindDuplicateKey, KindMalformed} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindIO
}

// Unit names what a Locator position counts.
type Unit int

const (
	UnitNone   Unit = iota
	UnitLine        // 1-based text line.
	UnitBlock       // 0-based text block index.
	UnitOffset      // 0-based byte offset.
	UnitRecord      // 0-based record index.
	UnitRow         // 1-based spreadsheet row.
)

// Locator points at the place in the input where decoding failed.
type Locator struct {
	Unit Unit
	Pos  int64

	// Line optionally refines a block locator with the 1-based line number.
	Line int
}

// AtLine returns a line locator.
func AtLine(line int) Locator { return Locator{Unit: UnitLine, Pos: int64(line), Line: line} }

// AtBlock returns a block locator refined with a line number.
func AtBlock(block, line int) Locator { return Locator{Unit: UnitBlock, Pos: int64(block), Line: line} }

// AtOffset returns a byte offset locator.
func AtOffset(offset int64) Locator { return Locator{Unit: UnitOffset, Pos: offset} }

// AtRecord returns a record index locator.
func AtRecord(index int) Locator { return Locator{Unit: UnitRecord, Pos: int64(index)} }

// AtRow returns a spreadsheet row locator.
func AtRow(row int) Locator { return Locator{Unit: UnitRow, Pos: int64(row)} }

func (l Locator) String() string {
	switch l.Unit {
	case UnitLine:
		return fmt.Sprintf("line %d", l.Pos)
	case UnitBlock:
		if l.Line > 0 {
			return fmt.Sprintf("block %d (line %d)", l.Pos, l.Line)
		}
		return fmt.Sprintf("block %d", l.Pos)
	case UnitOffset:
		return fmt.Sprintf("offset %d", l.Pos)
	case UnitRecord:
		return fmt.Sprintf("record %d", l.Pos)
	case UnitRow:
		return fmt.Sprintf("row %d", l.Pos)
	default:
		return ""
	}
}

// =============================================================================
// FIELD ERROR
// =============================================================================

// FieldError reports a value that could not be stored in a named field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DECODE ERROR
// =============================================================================

// DecodeError is returned by every codec when its input cannot be decoded.
// Decoding always stops at the first DecodeError; no partial sequence is
// returned alongside it.
type DecodeError struct {
	// Format is the registered name of the codec that failed.
	Format string

	// Kind classifies the failure.
	Kind Kind

	// Loc points at the offending line, block, byte offset, record or row.
	Loc Locator

	// Field is the field being decoded, if known.
	Field string

	// Err is the underlying cause.
	Err error
}

// NewDecodeError builds a DecodeError whose Kind and Field are inferred from
// err.
func NewDecodeError(format string, loc Locator, err error) *DecodeError {
	de := &DecodeError{Format: format, Kind: KindOf(err), Loc: loc, Err: err}
	var fe *FieldError
	if errors.As(err, &fe) {
		de.Field = fe.Field
	}
	return de
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Format)
	b.WriteString(": decode")
	if loc := e.Loc.String(); loc != "" {
		b.WriteString(" at ")
		b.WriteString(loc)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(strings.ToLower(e.Kind.String()))
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error's Kind.
func (e *DecodeError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// =============================================================================
// ENCODE ERROR
// =============================================================================

// EncodeError is returned when a sequence cannot be written. For a valid
// Transaction the only causes are limits of the target format and failures
// of the underlying writer.
type EncodeError struct {
	Format string

	// Index is the 0-based record being written, or -1 for header/trailer.
	Index int

	Err error
}

// NewEncodeError builds an EncodeError.
func NewEncodeError(format string, index int, err error) *EncodeError {
	return &EncodeError{Format: format, Index: index, Err: err}
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: encode record %d: %v", e.Format, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: encode: %v", e.Format, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}
