// Package fixtures provides sample transaction sequences shared by the codec,
// converter and comparator tests.
package fixtures

import "github.com/ginjaninja78/ypbank-converter/internal/types"

// History returns a three-record history: an external deposit, a failed
// transfer and a pending withdrawal.
func History() []types.Transaction {
	return []types.Transaction{
		{
			ID:          1001,
			Type:        types.Deposit,
			FromUser:    types.NoUser,
			ToUser:      501,
			Amount:      50000,
			Timestamp:   1672531200000,
			Status:      types.Success,
			Description: "Initial account funding",
		},
		Transfer(),
		{
			ID:          1003,
			Type:        types.Withdrawal,
			FromUser:    502,
			ToUser:      types.NoUser,
			Amount:      1000,
			Timestamp:   1672538400000,
			Status:      types.Pending,
			Description: "ATM withdrawal",
		},
	}
}

// Transfer returns the second record of History.
func Transfer() types.Transaction {
	return types.Transaction{
		ID:          1002,
		Type:        types.Transfer,
		FromUser:    501,
		ToUser:      502,
		Amount:      15000,
		Timestamp:   1672534800000,
		Status:      types.Failure,
		Description: "Payment for services, invoice #123",
	}
}

// Awkward returns records whose descriptions contain the delimiters and
// quoting characters of every text format, plus extreme numeric values.
func Awkward() []types.Transaction {
	return []types.Transaction{
		{
			ID:          ^uint64(0),
			Type:        types.Transfer,
			FromUser:    ^uint64(0) - 1,
			ToUser:      9876543210987654,
			Amount:      ^uint64(0),
			Timestamp:   ^uint64(0),
			Status:      types.Success,
			Description: `He said "hi", then left`,
		},
		{
			ID:          0,
			Type:        types.Deposit,
			Status:      types.Pending,
			Description: "",
		},
		{
			ID:          7,
			Type:        types.Withdrawal,
			FromUser:    3,
			Amount:      1,
			Timestamp:   1,
			Status:      types.Failure,
			Description: "line one\nline two: KEY: VALUE\n\nTX_ID: 9",
		},
		{
			ID:          8,
			Type:        types.Deposit,
			ToUser:      4,
			Amount:      250,
			Timestamp:   2,
			Status:      types.Success,
			Description: "  padded, ünïcödé ✓ <tag> & 'apostrophe'  ",
		},
	}
}
