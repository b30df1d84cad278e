package plan

import (
	"testing"
	"time"

	"github.com/xraph/recur/types"
)

func TestValidTerms(t *testing.T) {
	tests := []struct {
		name      string
		price     types.Money
		frequency time.Duration
		want      bool
	}{
		{"valid daily", types.USDC(100), 24 * time.Hour, true},
		{"valid one second", types.USDC(1), time.Second, true},
		{"zero price", types.USDC(0), time.Hour, false},
		{"negative price", types.USDC(-1), time.Hour, false},
		{"zero frequency", types.USDC(100), 0, false},
		{"negative frequency", types.USDC(100), -time.Hour, false},
		{"sub-second frequency", types.USDC(100), 500 * time.Millisecond, false},
		{"fractional seconds", types.USDC(100), time.Second + 500*time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Plan{Price: tt.price, Frequency: tt.frequency}
			if got := p.ValidTerms(); got != tt.want {
				t.Errorf("ValidTerms() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	if !(&Plan{Status: StatusActive}).IsActive() {
		t.Error("active plan reported inactive")
	}
	if (&Plan{Status: StatusArchived}).IsActive() {
		t.Error("archived plan reported active")
	}
}
