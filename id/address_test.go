package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/recur/id"
)

func TestPlanAddressDeterministic(t *testing.T) {
	merchant := id.NewMerchantID()

	a := id.PlanAddress(merchant, "pro-monthly")
	b := id.PlanAddress(merchant, "pro-monthly")
	if !a.Equal(b) {
		t.Errorf("same inputs produced different addresses: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a.String(), "plan_") {
		t.Errorf("expected plan_ prefix, got %q", a.String())
	}
}

func TestPlanAddressDistinct(t *testing.T) {
	m1 := id.NewMerchantID()
	m2 := id.NewMerchantID()

	tests := []struct {
		name string
		a, b id.Address
	}{
		{"different keys", id.PlanAddress(m1, "basic"), id.PlanAddress(m1, "pro")},
		{"different merchants", id.PlanAddress(m1, "basic"), id.PlanAddress(m2, "basic")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Equal(tt.b) {
				t.Errorf("distinct inputs produced the same address: %q", tt.a)
			}
		})
	}
}

func TestSubscriptionAddress(t *testing.T) {
	merchant := id.NewMerchantID()
	subscriber := id.NewSubscriberID()
	plan := id.PlanAddress(merchant, "pro-monthly")

	a := id.SubscriptionAddress(subscriber, plan)
	b := id.SubscriptionAddress(subscriber, plan)
	if !a.Equal(b) {
		t.Errorf("same inputs produced different addresses: %q vs %q", a, b)
	}
	if a.Kind() != id.KindSubscription {
		t.Errorf("expected kind %q, got %q", id.KindSubscription, a.Kind())
	}

	other := id.SubscriptionAddress(id.NewSubscriberID(), plan)
	if a.Equal(other) {
		t.Error("different subscribers produced the same subscription address")
	}
}

func TestDeriveLengthPrefixing(t *testing.T) {
	// Adjacent components must not be confusable across boundaries.
	a := id.Derive(id.KindPlan, "ab", "c")
	b := id.Derive(id.KindPlan, "a", "bc")
	if a.Equal(b) {
		t.Errorf("boundary-shifted tuples collided: %q", a)
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	original := id.PlanAddress(id.NewMerchantID(), "basic")

	parsed, err := id.ParseAddress(original.String())
	if err != nil {
		t.Fatalf("ParseAddress failed: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("round-trip mismatch: %q != %q", parsed, original)
	}
}

func TestParseAddressRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "plan"},
		{"empty suffix", "plan_"},
		{"unknown kind", "inv_" + strings.Repeat("ab", 32)},
		{"short suffix", "plan_abcdef"},
		{"non-hex suffix", "plan_" + strings.Repeat("zz", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.ParseAddress(tt.input); err == nil {
				t.Errorf("expected error for %q, got nil", tt.input)
			}
		})
	}
}

func TestNilAddress(t *testing.T) {
	var a id.Address
	if !a.IsNil() {
		t.Error("zero-value Address should be nil")
	}
	if a.String() != "" {
		t.Errorf("expected empty string, got %q", a.String())
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	original := id.SubscriptionAddress(id.NewSubscriberID(), id.PlanAddress(id.NewMerchantID(), "basic"))

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var restored id.Address
	if err := restored.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if !restored.Equal(original) {
		t.Errorf("mismatch: %q != %q", restored, original)
	}
}

func TestAddressValueScan(t *testing.T) {
	original := id.PlanAddress(id.NewMerchantID(), "pro")

	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned id.Address
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !scanned.Equal(original) {
		t.Errorf("mismatch: %q != %q", scanned, original)
	}

	var nilAddr id.Address
	val, err = nilAddr.Value()
	if err != nil {
		t.Fatalf("Value(nil) failed: %v", err)
	}
	if val != nil {
		t.Errorf("expected nil value for nil Address, got %v", val)
	}
}
