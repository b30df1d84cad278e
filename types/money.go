// Package types provides common types used across Recur.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money represents a token amount in the smallest unit of its
// denomination. All arithmetic is integer-only — no floating point.
//
// Examples:
//   - USDC(49_000000) = 49 USDC (6 decimals)
//   - SOL(1_000000000) = 1 SOL (9 decimals)
type Money struct {
	Amount int64  `json:"amount"` // Smallest unit (base units of the token)
	Denom  string `json:"denom"`  // Lowercase denomination: "usdc", "sol", "usdt"
}

// New creates a Money value in an arbitrary denomination.
func New(amount int64, denom string) Money {
	return Money{Amount: amount, Denom: strings.ToLower(denom)}
}

// Common denomination constructors

// USDC creates a Money value in USD Coin base units (6 decimals).
func USDC(units int64) Money { return Money{Amount: units, Denom: "usdc"} }

// USDT creates a Money value in Tether base units (6 decimals).
func USDT(units int64) Money { return Money{Amount: units, Denom: "usdt"} }

// SOL creates a Money value in lamports (9 decimals).
func SOL(lamports int64) Money { return Money{Amount: lamports, Denom: "sol"} }

// Zero returns a zero Money value in the specified denomination.
func Zero(denom string) Money { return Money{Amount: 0, Denom: strings.ToLower(denom)} }

// Arithmetic operations

// Add adds two Money values. Panics if denominations don't match.
func (m Money) Add(other Money) Money {
	m.assertSameDenom(other)
	return Money{Amount: m.Amount + other.Amount, Denom: m.Denom}
}

// Subtract subtracts another Money value. Panics if denominations don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameDenom(other)
	return Money{Amount: m.Amount - other.Amount, Denom: m.Denom}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Denom: m.Denom}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Denom: m.Denom}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and denomination).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Denom == other.Denom
}

// SameDenom returns true if both values share a denomination.
func (m Money) SameDenom(other Money) bool { return m.Denom == other.Denom }

// LessThan returns true if this Money is less than other. Panics if denominations don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameDenom(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if denominations don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameDenom(other)
	return m.Amount > other.Amount
}

// Covers returns true if this Money is at least other. Panics if denominations don't match.
func (m Money) Covers(other Money) bool {
	m.assertSameDenom(other)
	return m.Amount >= other.Amount
}

// Formatting methods

// FormatBase returns the base-unit amount followed by the denomination,
// e.g. "4900 usdc". Display-unit formatting needs the token's decimal
// count, which lives on the ledger, not here.
func (m Money) FormatBase() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Denom)
}

// String returns the base-unit representation.
func (m Money) String() string { return m.FormatBase() }

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount  int64  `json:"amount"`
		Denom   string `json:"denom"`
		Display string `json:"display"`
	}{
		Amount:  m.Amount,
		Denom:   m.Denom,
		Display: m.String(),
	})
}

// assertSameDenom panics if denominations don't match.
func (m Money) assertSameDenom(other Money) {
	if m.Denom != other.Denom {
		panic(fmt.Sprintf("money: denomination mismatch: %s != %s", m.Denom, other.Denom))
	}
}

// Sum calculates the sum of multiple Money values. All must share a denomination.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Money{}
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
