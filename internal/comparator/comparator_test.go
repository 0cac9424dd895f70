package comparator

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/ginjaninja78/ypbank-converter/internal/fixtures"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

func TestCompareReflexive(t *testing.T) {
	for name, s := range map[string][]types.Transaction{
		"empty":   {},
		"nil":     nil,
		"history": fixtures.History(),
		"awkward": fixtures.Awkward(),
	} {
		got := Compare(s, s)
		if !got.Equivalent || got.Left != nil || got.Right != nil {
			t.Errorf("%s: Compare(s, s) = %+v", name, got)
		}
	}
}

func TestCompareNilAndEmpty(t *testing.T) {
	if !Compare(nil, []types.Transaction{}).Equivalent {
		t.Fatal("nil and empty sequences should be equivalent")
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	s := fixtures.History()
	extra := fixtures.Awkward()[0]
	longer := append(fixtures.History(), extra)

	got := Compare(s, longer)
	if got.Equivalent || got.Index != len(s) {
		t.Fatalf("Compare = %+v, want divergence at %d", got, len(s))
	}
	if got.Left != nil || got.Right == nil || !got.Right.Equal(extra) {
		t.Fatalf("operands = %v, %v", got.Left, got.Right)
	}

	swapped := Compare(longer, s)
	if swapped.Index != len(s) || swapped.Left == nil || swapped.Right != nil {
		t.Fatalf("swapped Compare = %+v", swapped)
	}
}

func TestCompareFirstDivergence(t *testing.T) {
	lhs := fixtures.History()
	rhs := fixtures.History()
	rhs[1].Amount++
	rhs[1].Status = types.Success
	rhs[2].Description = "changed too"

	got := Compare(lhs, rhs)
	if got.Equivalent || got.Index != 1 {
		t.Fatalf("Compare = %+v, want divergence at 1", got)
	}
	if !got.Left.Equal(lhs[1]) || !got.Right.Equal(rhs[1]) {
		t.Fatal("operands are not the records at index 1")
	}
	if want := []string{types.FieldAmount, types.FieldStatus}; !reflect.DeepEqual(got.Fields(), want) {
		t.Fatalf("Fields() = %v, want %v", got.Fields(), want)
	}
}

func TestCompareMissingTransfer(t *testing.T) {
	lhs := fixtures.History()[:1]
	rhs := fixtures.History()

	got := Compare(lhs, rhs)
	if got.Equivalent || got.Index != 1 {
		t.Fatalf("Compare = %+v, want divergence at 1", got)
	}
	if got.Left != nil {
		t.Fatalf("Left = %+v, want no record", got.Left)
	}
	want := types.Transaction{
		ID:          1002,
		Type:        types.Transfer,
		FromUser:    501,
		ToUser:      502,
		Amount:      15000,
		Timestamp:   1672534800000,
		Status:      types.Failure,
		Description: "Payment for services, invoice #123",
	}
	if got.Right == nil || !got.Right.Equal(want) {
		t.Fatalf("Right = %+v, want the transfer", got.Right)
	}
}

func TestCompareDoesNotAliasInput(t *testing.T) {
	lhs := fixtures.History()
	rhs := fixtures.History()[:2]
	got := Compare(lhs, rhs)
	got.Left.Amount = 1
	if lhs[2].Amount == 1 {
		t.Fatal("result operand aliases the input sequence")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Compare(fixtures.History(), fixtures.History()).WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "The transaction sequences are identical (3 records).\n" {
		t.Fatalf("equivalent report = %q", got)
	}

	buf.Reset()
	if err := Compare(fixtures.History()[:1], fixtures.History()).WriteReport(&buf); err != nil {
		t.Fatal(err)
	}
	report := buf.String()
	for _, want := range []string{
		"differ at record 2 (index 1)",
		"Lengths: 1 and 3 records.",
		"LHS:\n<no record>\n",
		"RHS:\nTX_ID: 1002\n",
		`DESCRIPTION: "Payment for services, invoice #123"`,
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("report lacks %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Differing fields") {
		t.Fatalf("field list printed with a missing operand:\n%s", report)
	}

	buf.Reset()
	rhs := fixtures.History()
	rhs[0].ToUser = 999
	Compare(fixtures.History(), rhs).WriteReport(&buf)
	if !strings.Contains(buf.String(), "Differing fields: TO_USER_ID\n") {
		t.Fatalf("field list missing:\n%s", buf.String())
	}
}
