// =============================================================================
// YPBank Converter - Shared Types
// =============================================================================
//
// This package contains the transaction model shared by every codec, the
// converter, the comparator and the validator. Keeping it here avoids import
// cycles between the format packages.
//
// ENUMERATIONS:
//   TxType and TxStatus are closed sets. The canonical name and the binary tag
//   of every variant live in a single table per enum (txTypeTable,
//   txStatusTable) so that no codec can drift from another.
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// FIELD LAYOUT
// =============================================================================

// Field names, in the fixed column order used by the tabular formats and by
// the text block encoder.
const (
	FieldID          = "TX_ID"
	FieldType        = "TX_TYPE"
	FieldFromUser    = "FROM_USER_ID"
	FieldToUser      = "TO_USER_ID"
	FieldAmount      = "AMOUNT"
	FieldTimestamp   = "TIMESTAMP"
	FieldStatus      = "STATUS"
	FieldDescription = "DESCRIPTION"
)

// FieldNames is the documented column order.
var FieldNames = []string{
	FieldID,
	FieldType,
	FieldFromUser,
	FieldToUser,
	FieldAmount,
	FieldTimestamp,
	FieldStatus,
	FieldDescription,
}

// NoUser is the reserved user id meaning "no counterparty", e.g. the source of
// an external deposit or the sink of a withdrawal.
const NoUser uint64 = 0

// =============================================================================
// TRANSACTION TYPE
// =============================================================================

// TxType is the kind of a transaction.
type TxType uint8

const (
	Deposit TxType = iota
	Withdrawal
	Transfer
)

type enumEntry struct {
	name string
	tag  byte
}

// txTypeTable is the only place where TxType names and tags are defined.
var txTypeTable = map[TxType]enumEntry{
	Deposit:    {name: "DEPOSIT", tag: 0},
	Withdrawal: {name: "WITHDRAWAL", tag: 1},
	Transfer:   {name: "TRANSFER", tag: 2},
}

// String returns the canonical uppercase name.
func (t TxType) String() string {
	if e, ok := txTypeTable[t]; ok {
		return e.name
	}
	return "TxType(" + strconv.Itoa(int(t)) + ")"
}

// Tag returns the binary tag of the type.
func (t TxType) Tag() byte {
	return txTypeTable[t].tag
}

// Valid reports whether t is one of the defined variants.
func (t TxType) Valid() bool {
	_, ok := txTypeTable[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t TxType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: transaction type %d", ErrUnknownTag, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TxType) UnmarshalText(text []byte) error {
	v, err := ParseTxType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTxType parses a canonical type name. Matching ignores case and
// surrounding whitespace; anything else is rejected.
func ParseTxType(s string) (TxType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, e := range txTypeTable {
		if e.name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: transaction type %q", ErrUnknownTag, s)
}

// TxTypeFromTag maps a binary tag back to its TxType.
func TxTypeFromTag(tag byte) (TxType, error) {
	for t, e := range txTypeTable {
		if e.tag == tag {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: transaction type tag %d", ErrUnknownTag, tag)
}

// =============================================================================
// TRANSACTION STATUS
// =============================================================================

// TxStatus is the outcome of a transaction.
type TxStatus uint8

const (
	Success TxStatus = iota
	Failure
	Pending
)

// txStatusTable is the only place where TxStatus names and tags are defined.
var txStatusTable = map[TxStatus]enumEntry{
	Success: {name: "SUCCESS", tag: 0},
	Failure: {name: "FAILURE", tag: 1},
	Pending: {name: "PENDING", tag: 2},
}

// String returns the canonical uppercase name.
func (s TxStatus) String() string {
	if e, ok := txStatusTable[s]; ok {
		return e.name
	}
	return "TxStatus(" + strconv.Itoa(int(s)) + ")"
}

// Tag returns the binary tag of the status.
func (s TxStatus) Tag() byte {
	return txStatusTable[s].tag
}

// Valid reports whether s is one of the defined variants.
func (s TxStatus) Valid() bool {
	_, ok := txStatusTable[s]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (s TxStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: transaction status %d", ErrUnknownTag, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TxStatus) UnmarshalText(text []byte) error {
	v, err := ParseTxStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseTxStatus parses a canonical status name.
func ParseTxStatus(s string) (TxStatus, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for st, e := range txStatusTable {
		if e.name == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: transaction status %q", ErrUnknownTag, s)
}

// TxStatusFromTag maps a binary tag back to its TxStatus.
func TxStatusFromTag(tag byte) (TxStatus, error) {
	for st, e := range txStatusTable {
		if e.tag == tag {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: transaction status tag %d", ErrUnknownTag, tag)
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is a single bank transaction event. Every field is always
// present; values are built once by a decoder and never mutated afterwards.
type Transaction struct {
	// ID identifies the transaction within its sequence.
	ID uint64

	// Type is the kind of transaction.
	Type TxType

	// FromUser is the debited user, or NoUser for external deposits.
	FromUser uint64

	// ToUser is the credited user, or NoUser for withdrawals.
	ToUser uint64

	// Amount is expressed in minor currency units.
	Amount uint64

	// Timestamp is in milliseconds since the Unix epoch.
	Timestamp uint64

	// Status is the outcome of the transaction.
	Status TxStatus

	// Description is free text and may be empty.
	Description string
}

// Equal reports whether t and other hold identical values in every field.
func (t Transaction) Equal(other Transaction) bool {
	return t == other
}

// Validate checks that the enum fields hold defined variants and that the
// description is UTF-8. Decoders never produce an invalid value; encoders call
// Validate so that a value built by hand cannot be written in a form no
// decoder accepts.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return &FieldError{Field: FieldType, Value: t.Type.String(), Err: ErrUnknownTag}
	}
	if !t.Status.Valid() {
		return &FieldError{Field: FieldStatus, Value: t.Status.String(), Err: ErrUnknownTag}
	}
	if err := CheckDescription(t.Description); err != nil {
		return &FieldError{Field: FieldDescription, Err: err}
	}
	return nil
}

// CheckDescription rejects a description that is not valid UTF-8.
func CheckDescription(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: description is not valid UTF-8", ErrMalformed)
	}
	return nil
}

// Diff returns the names of the fields whose values differ between t and
// other, in FieldNames order.
func (t Transaction) Diff(other Transaction) []string {
	var fields []string
	if t.ID != other.ID {
		fields = append(fields, FieldID)
	}
	if t.Type != other.Type {
		fields = append(fields, FieldType)
	}
	if t.FromUser != other.FromUser {
		fields = append(fields, FieldFromUser)
	}
	if t.ToUser != other.ToUser {
		fields = append(fields, FieldToUser)
	}
	if t.Amount != other.Amount {
		fields = append(fields, FieldAmount)
	}
	if t.Timestamp != other.Timestamp {
		fields = append(fields, FieldTimestamp)
	}
	if t.Status != other.Status {
		fields = append(fields, FieldStatus)
	}
	if t.Description != other.Description {
		fields = append(fields, FieldDescription)
	}
	return fields
}

// Record returns the transaction as a positional record in FieldNames order.
// Numbers are rendered in base 10 and enums by their canonical name.
func (t Transaction) Record() []string {
	return []string{
		strconv.FormatUint(t.ID, 10),
		t.Type.String(),
		strconv.FormatUint(t.FromUser, 10),
		strconv.FormatUint(t.ToUser, 10),
		strconv.FormatUint(t.Amount, 10),
		strconv.FormatUint(t.Timestamp, 10),
		t.Status.String(),
		t.Description,
	}
}

// FromRecord builds a Transaction from a positional record in FieldNames
// order. Numeric and enum fields are trimmed before parsing; the description
// is taken verbatim. Value errors are *FieldError naming the column.
func FromRecord(record []string) (Transaction, error) {
	if len(record) != len(FieldNames) {
		return Transaction{}, fmt.Errorf("%w: expected %d fields, got %d",
			ErrMalformed, len(FieldNames), len(record))
	}

	var tx Transaction
	for i, name := range FieldNames {
		if err := tx.SetField(name, record[i]); err != nil {
			return Transaction{}, err
		}
	}
	return tx, nil
}

// SetField parses value for the named field and stores it. It is used while a
// decoder assembles a transaction and must not be called afterwards.
func (t *Transaction) SetField(name, value string) error {
	var err error
	switch name {
	case FieldID:
		t.ID, err = parseUint(value)
	case FieldType:
		t.Type, err = ParseTxType(value)
	case FieldFromUser:
		t.FromUser, err = parseUint(value)
	case FieldToUser:
		t.ToUser, err = parseUint(value)
	case FieldAmount:
		t.Amount, err = parseUint(value)
	case FieldTimestamp:
		t.Timestamp, err = parseUint(value)
	case FieldStatus:
		t.Status, err = ParseTxStatus(value)
	case FieldDescription:
		if err := CheckDescription(value); err != nil {
			return &FieldError{Field: name, Err: err}
		}
		t.Description = value
	default:
		return &FieldError{Field: name, Value: value, Err: ErrUnknownKey}
	}
	if err != nil {
		return &FieldError{Field: name, Value: value, Err: err}
	}
	return nil
}

// IsField reports whether name is one of the eight field names.
func IsField(name string) bool {
	for _, f := range FieldNames {
		if f == name {
			return true
		}
	}
	return false
}

func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}
