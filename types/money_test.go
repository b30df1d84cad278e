package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name    string
		money   Money
		amount  int64
		denom   string
		display string
	}{
		{"USDC", USDC(49_000000), 49_000000, "usdc", "49000000 usdc"},
		{"USDT", USDT(19_500000), 19_500000, "usdt", "19500000 usdt"},
		{"SOL", SOL(1_000000000), 1_000000000, "sol", "1000000000 sol"},
		{"New lowercases", New(100, "USDC"), 100, "usdc", "100 usdc"},
		{"Zero", Zero("USDC"), 0, "usdc", "0 usdc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Denom != tt.denom {
				t.Errorf("Denom: got %s, want %s", tt.money.Denom, tt.denom)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USDC(100).Add(USDC(200)) }, USDC(300)},
		{"Subtract", func() Money { return USDC(500).Subtract(USDC(200)) }, USDC(300)},
		{"Multiply", func() Money { return USDC(100).Multiply(3) }, USDC(300)},
		{"Negate", func() Money { return USDC(100).Negate() }, USDC(-100)},
		{"Complex", func() Money {
			return USDC(1000).Add(USDC(500)).Multiply(2).Subtract(USDC(1000))
		}, USDC(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyDenomMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for denomination mismatch")
		}
	}()

	// This should panic
	_ = USDC(100).Add(SOL(100))
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
		covers  bool
	}{
		{"Equal", USDC(100), USDC(100), false, false, true, true},
		{"Less", USDC(50), USDC(100), true, false, false, false},
		{"Greater", USDC(200), USDC(100), false, true, false, true},
		{"Zero equal", USDC(0), Zero("usdc"), false, false, true, true},
		{"Negative less", USDC(-100), USDC(100), true, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
			if got := tt.a.Covers(tt.b); got != tt.covers {
				t.Errorf("Covers: got %v, want %v", got, tt.covers)
			}
		})
	}
}

func TestMoneyPredicates(t *testing.T) {
	tests := []struct {
		name       string
		money      Money
		isZero     bool
		isPositive bool
		isNegative bool
	}{
		{"Zero", USDC(0), true, false, false},
		{"Positive", USDC(100), false, true, false},
		{"Negative", USDC(-100), false, false, true},
		{"Large positive", USDC(999999999), false, true, false},
		{"Large negative", USDC(-999999999), false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.IsZero(); got != tt.isZero {
				t.Errorf("IsZero: got %v, want %v", got, tt.isZero)
			}
			if got := tt.money.IsPositive(); got != tt.isPositive {
				t.Errorf("IsPositive: got %v, want %v", got, tt.isPositive)
			}
			if got := tt.money.IsNegative(); got != tt.isNegative {
				t.Errorf("IsNegative: got %v, want %v", got, tt.isNegative)
			}
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	m := USDC(4900)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	// Check JSON structure
	expected := `{"amount":4900,"denom":"usdc","display":"4900 usdc"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	// Unmarshal and verify
	var result struct {
		Amount  int64  `json:"amount"`
		Denom   string `json:"denom"`
		Display string `json:"display"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if result.Amount != 4900 || result.Denom != "usdc" || result.Display != "4900 usdc" {
		t.Errorf("Unmarshaled data incorrect: %+v", result)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name     string
		values   []Money
		expected Money
	}{
		{"Empty", []Money{}, Money{}},
		{"Single", []Money{USDC(100)}, USDC(100)},
		{"Multiple", []Money{USDC(100), USDC(200), USDC(300)}, USDC(600)},
		{"With negatives", []Money{USDC(100), USDC(-50), USDC(200)}, USDC(250)},
		{"All zero", []Money{USDC(0), USDC(0), USDC(0)}, USDC(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Sum(tt.values...)
			if !result.Equal(tt.expected) {
				t.Errorf("Sum: got %v, want %v", result, tt.expected)
			}
		})
	}
}

func BenchmarkMoneyAdd(b *testing.B) {
	m1 := USDC(100)
	m2 := USDC(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m1.Add(m2)
	}
}

func BenchmarkMoneyJSON(b *testing.B) {
	m := USDC(4900)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(m)
	}
}
