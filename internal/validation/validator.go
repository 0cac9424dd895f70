// =============================================================================
// YPBank Converter - Validation Engine
// =============================================================================
//
// This module checks data properties of a decoded transaction sequence that
// the formats themselves do not constrain. It never changes the data and never
// rejects a sequence on its own; it reports issues and a summary, and the
// caller decides what to do with them.
//
// RULES:
//   duplicate_id            - a TX_ID that already appeared earlier
//   non_monotonic_timestamp - a TIMESTAMP lower than the previous record's
//   deposit_source          - a DEPOSIT whose FROM_USER_ID is not 0
//   withdrawal_sink         - a WITHDRAWAL whose TO_USER_ID is not 0
//   transfer_counterparty   - a TRANSFER with 0 on either side
//   self_transfer           - a TRANSFER from a user to the same user
//   zero_amount             - an AMOUNT of 0
//
// SEVERITY:
//   Every rule reports a warning by default. RequireUniqueIDs and
//   RequireMonotonicTimestamps raise their rules to errors, and
//   TreatWarningsAsErrors raises everything. The three counterparty rules
//   are only checked when EnforceCounterpartySentinel is set.
//
// =============================================================================

package validation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ginjaninja78/ypbank-converter/internal/types"
	"github.com/shopspring/decimal"
)

// Rule names.
const (
	RuleDuplicateID           = "duplicate_id"
	RuleNonMonotonicTimestamp = "non_monotonic_timestamp"
	RuleDepositSource         = "deposit_source"
	RuleWithdrawalSink        = "withdrawal_sink"
	RuleTransferCounterparty  = "transfer_counterparty"
	RuleSelfTransfer          = "self_transfer"
	RuleZeroAmount            = "zero_amount"
)

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// =============================================================================
// VALIDATION ISSUE TYPES
// =============================================================================

// Issue is a single finding.
type Issue struct {
	// Severity is SeverityWarning or SeverityError.
	Severity string

	// Rule is the rule that was violated.
	Rule string

	// Index is the 0-based position of the record in the sequence.
	Index int

	// ID is the TX_ID of the record.
	ID uint64

	// Field is the field the rule looks at.
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] record %d (TX_ID %d), %s: %s (%s)",
		strings.ToUpper(i.Severity), i.Index+1, i.ID, i.Field, i.Message, i.Rule)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of validation.
type Result struct {
	// IsValid is true if there are no error-severity issues.
	IsValid bool

	// Issues contains every finding in record order.
	Issues []*Issue

	// ErrorCount is the number of error-severity issues.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// TransactionsValidated is the number of records checked.
	TransactionsValidated int

	// Summary describes the sequence.
	Summary Summary
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options contains options for validation.
type Options struct {
	// RequireUniqueIDs reports duplicate_id as an error.
	RequireUniqueIDs bool

	// RequireMonotonicTimestamps reports non_monotonic_timestamp as an error.
	RequireMonotonicTimestamps bool

	// EnforceCounterpartySentinel enables the deposit_source,
	// withdrawal_sink and transfer_counterparty rules.
	EnforceCounterpartySentinel bool

	// TreatWarningsAsErrors reports every issue as an error.
	TreatWarningsAsErrors bool

	// CurrencyExponent converts minor units to major units in the summary.
	CurrencyExponent int
}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{
		EnforceCounterpartySentinel: true,
		CurrencyExponent:            2,
	}
}

// Validator checks transaction sequences.
type Validator struct {
	options Options
}

// New creates a Validator with the given options.
func New(options Options) *Validator {
	return &Validator{options: options}
}

// Validate checks txs with the given options.
func Validate(txs []types.Transaction, options Options) *Result {
	return New(options).ValidateAll(txs)
}

// ValidateAll checks every record of txs.
func (v *Validator) ValidateAll(txs []types.Transaction) *Result {
	result := &Result{
		Issues:                []*Issue{},
		TransactionsValidated: len(txs),
		Summary:               Summarize(txs, v.options.CurrencyExponent),
	}

	firstSeen := make(map[uint64]int, len(txs))
	for i, tx := range txs {
		var issues []*Issue

		if prev, dup := firstSeen[tx.ID]; dup {
			issues = append(issues, v.issue(RuleDuplicateID, v.options.RequireUniqueIDs, i, tx, types.FieldID,
				fmt.Sprintf("id %d already used by record %d", tx.ID, prev+1)))
		} else {
			firstSeen[tx.ID] = i
		}

		if i > 0 && tx.Timestamp < txs[i-1].Timestamp {
			issues = append(issues, v.issue(RuleNonMonotonicTimestamp, v.options.RequireMonotonicTimestamps, i, tx, types.FieldTimestamp,
				fmt.Sprintf("timestamp %d is before the previous record's %d", tx.Timestamp, txs[i-1].Timestamp)))
		}

		issues = append(issues, v.ValidateTransaction(i, tx)...)

		for _, issue := range issues {
			if issue.Severity == SeverityError {
				result.ErrorCount++
			} else {
				result.WarningCount++
			}
		}
		result.Issues = append(result.Issues, issues...)
	}

	result.IsValid = result.ErrorCount == 0
	return result
}

// ValidateTransaction applies the rules that look at a single record.
func (v *Validator) ValidateTransaction(index int, tx types.Transaction) []*Issue {
	var issues []*Issue

	if v.options.EnforceCounterpartySentinel {
		switch tx.Type {
		case types.Deposit:
			if tx.FromUser != types.NoUser {
				issues = append(issues, v.issue(RuleDepositSource, false, index, tx, types.FieldFromUser,
					fmt.Sprintf("deposit comes from user %d instead of 0", tx.FromUser)))
			}
		case types.Withdrawal:
			if tx.ToUser != types.NoUser {
				issues = append(issues, v.issue(RuleWithdrawalSink, false, index, tx, types.FieldToUser,
					fmt.Sprintf("withdrawal goes to user %d instead of 0", tx.ToUser)))
			}
		case types.Transfer:
			if tx.FromUser == types.NoUser || tx.ToUser == types.NoUser {
				issues = append(issues, v.issue(RuleTransferCounterparty, false, index, tx, types.FieldFromUser,
					fmt.Sprintf("transfer from %d to %d lacks a counterparty", tx.FromUser, tx.ToUser)))
			}
		}
	}

	if tx.Type == types.Transfer && tx.FromUser == tx.ToUser && tx.FromUser != types.NoUser {
		issues = append(issues, v.issue(RuleSelfTransfer, false, index, tx, types.FieldToUser,
			fmt.Sprintf("transfer from user %d to itself", tx.FromUser)))
	}

	if tx.Amount == 0 {
		issues = append(issues, v.issue(RuleZeroAmount, false, index, tx, types.FieldAmount, "amount is zero"))
	}

	return issues
}

func (v *Validator) issue(rule string, required bool, index int, tx types.Transaction, field, message string) *Issue {
	severity := SeverityWarning
	if required || v.options.TreatWarningsAsErrors {
		severity = SeverityError
	}
	return &Issue{
		Severity: severity,
		Rule:     rule,
		Index:    index,
		ID:       tx.ID,
		Field:    field,
		Message:  message,
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary aggregates a sequence. Amounts are in major currency units.
type Summary struct {
	// Count is the number of records.
	Count int

	// ByType and ByStatus count records per enum variant.
	ByType   map[types.TxType]int
	ByStatus map[types.TxStatus]int

	// Volume is the total amount per type over all records.
	Volume map[types.TxType]decimal.Decimal

	// Settled is the total amount per type over SUCCESS records.
	Settled map[types.TxType]decimal.Decimal

	// FirstTimestamp and LastTimestamp are the smallest and largest
	// timestamps, in milliseconds since the Unix epoch.
	FirstTimestamp, LastTimestamp uint64
}

// Summarize computes the summary of txs. exponent is the number of decimal
// places between minor and major units.
func Summarize(txs []types.Transaction, exponent int) Summary {
	s := Summary{
		Count:    len(txs),
		ByType:   map[types.TxType]int{},
		ByStatus: map[types.TxStatus]int{},
		Volume:   map[types.TxType]decimal.Decimal{},
		Settled:  map[types.TxType]decimal.Decimal{},
	}
	for _, t := range []types.TxType{types.Deposit, types.Transfer, types.Withdrawal} {
		s.Volume[t] = decimal.Zero
		s.Settled[t] = decimal.Zero
	}

	for i, tx := range txs {
		s.ByType[tx.Type]++
		s.ByStatus[tx.Status]++

		amount := MajorUnits(tx.Amount, exponent)
		s.Volume[tx.Type] = s.Volume[tx.Type].Add(amount)
		if tx.Status == types.Success {
			s.Settled[tx.Type] = s.Settled[tx.Type].Add(amount)
		}

		if i == 0 || tx.Timestamp < s.FirstTimestamp {
			s.FirstTimestamp = tx.Timestamp
		}
		if i == 0 || tx.Timestamp > s.LastTimestamp {
			s.LastTimestamp = tx.Timestamp
		}
	}
	return s
}

// MajorUnits converts an amount in minor units. The full uint64 range is
// represented exactly.
func MajorUnits(amount uint64, exponent int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), int32(-exponent))
}
