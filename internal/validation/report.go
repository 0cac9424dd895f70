// =============================================================================
// YPBank Converter - Validation Report
// =============================================================================
//
// Renders a validation Result as the plain-text report printed by the
// 'validate' command: issues first, then counts, totals and the time range.
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// WriteReport renders the issues and the summary. Amounts are printed with
// exponent decimal places.
func (r *Result) WriteReport(w io.Writer, exponent int) error {
	bw := bufio.NewWriter(w)

	for _, issue := range r.Issues {
		fmt.Fprintln(bw, issue.Error())
	}
	if len(r.Issues) > 0 {
		bw.WriteString("\n")
	}

	s := r.Summary
	fmt.Fprintf(bw, "Records:         %d\n", s.Count)
	fmt.Fprintf(bw, "Errors:          %d\n", r.ErrorCount)
	fmt.Fprintf(bw, "Warnings:        %d\n", r.WarningCount)

	if s.Count > 0 {
		fmt.Fprintf(bw, "Time range:      %s .. %s\n", formatMillis(s.FirstTimestamp), formatMillis(s.LastTimestamp))
	}

	bw.WriteString("\nType        Count          Volume         Settled\n")
	for _, t := range []types.TxType{types.Deposit, types.Transfer, types.Withdrawal} {
		fmt.Fprintf(bw, "%-10s %6d %15s %15s\n", t, s.ByType[t],
			s.Volume[t].StringFixed(int32(exponent)), s.Settled[t].StringFixed(int32(exponent)))
	}

	bw.WriteString("\nStatus      Count\n")
	for _, st := range []types.TxStatus{types.Success, types.Failure, types.Pending} {
		fmt.Fprintf(bw, "%-10s %6d\n", st, s.ByStatus[st])
	}

	return bw.Flush()
}

func formatMillis(ms uint64) string {
	if ms > math.MaxInt64 {
		return fmt.Sprintf("%d ms", ms)
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
}
