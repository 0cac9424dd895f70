// =============================================================================
// YPBank Converter - Comparator Module
// =============================================================================
//
// This module finds the first position at which two transaction sequences
// disagree. The sequences may come from different formats; only the decoded
// values are compared.
//
// RULES:
//   - Positions are walked from 0 to max(len(lhs), len(rhs)) - 1.
//   - A sequence that has ended holds "no record" at every later position.
//     "No record" is a value like any other: it equals only "no record".
//   - Two records are equal when every field is equal.
//   - Comparison never fails.
//
// =============================================================================

package comparator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ypbank-converter/internal/textcodec"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Result is the outcome of a comparison.
type Result struct {
	// Equivalent is true when both sequences hold the same records in the
	// same order.
	Equivalent bool

	// Index is the 0-based position of the first difference. It is only
	// meaningful when Equivalent is false.
	Index int

	// Left and Right are the operands at Index; nil means "no record".
	Left, Right *types.Transaction

	// LeftLen and RightLen are the lengths of the compared sequences.
	LeftLen, RightLen int
}

// Compare walks lhs and rhs position by position and stops at the first
// position whose operands differ.
func Compare(lhs, rhs []types.Transaction) Result {
	result := Result{Equivalent: true, LeftLen: len(lhs), RightLen: len(rhs)}

	for i := 0; i < max(len(lhs), len(rhs)); i++ {
		l, r := at(lhs, i), at(rhs, i)
		if same(l, r) {
			continue
		}
		result.Equivalent = false
		result.Index = i
		result.Left = l
		result.Right = r
		return result
	}
	return result
}

func at(txs []types.Transaction, i int) *types.Transaction {
	if i >= len(txs) {
		return nil
	}
	tx := txs[i]
	return &tx
}

func same(l, r *types.Transaction) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	return l.Equal(*r)
}

// Fields returns the names of the differing fields at the divergence point.
// It is empty when the sequences are equivalent or one operand is missing.
func (r Result) Fields() []string {
	if r.Equivalent || r.Left == nil || r.Right == nil {
		return nil
	}
	return r.Left.Diff(*r.Right)
}

// =============================================================================
// REPORT
// =============================================================================

// WriteReport renders the result for people. Operands are shown as text
// blocks, or as <no record> past the end of a sequence.
func (r Result) WriteReport(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if r.Equivalent {
		fmt.Fprintf(bw, "The transaction sequences are identical (%d records).\n", r.LeftLen)
		return bw.Flush()
	}

	fmt.Fprintf(bw, "The transaction sequences differ at record %d (index %d).\n", r.Index+1, r.Index)
	fmt.Fprintf(bw, "Lengths: %d and %d records.\n", r.LeftLen, r.RightLen)

	writeOperand(bw, "LHS", r.Left)
	writeOperand(bw, "RHS", r.Right)

	if fields := r.Fields(); len(fields) > 0 {
		fmt.Fprintf(bw, "\nDiffering fields: %s\n", strings.Join(fields, ", "))
	}
	return bw.Flush()
}

func writeOperand(w *bufio.Writer, label string, tx *types.Transaction) {
	fmt.Fprintf(w, "\n%s:\n", label)
	if tx == nil {
		w.WriteString("<no record>\n")
		return
	}
	w.WriteString(textcodec.FormatBlock(*tx))
}
