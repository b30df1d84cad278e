package recur_test

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/recur"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/plan"
	storememory "github.com/xraph/recur/store/memory"
	tokenmemory "github.com/xraph/recur/token/memory"
	"github.com/xraph/recur/types"
)

func TestBillerSweepsDueSubscriptions(t *testing.T) {
	ctx := context.Background()

	ledger := tokenmemory.New()
	clock := newFakeClock()
	merchant := id.NewMerchantID()
	subscriber := id.NewSubscriberID()
	merchantAccount := ledger.Open(merchant, types.USDC(0))
	fundingAccount := ledger.Open(subscriber, types.USDC(1000))

	engine := recur.New(storememory.New(), ledger, ledger,
		recur.WithClock(clock),
		recur.WithBillInterval(5*time.Millisecond),
	)
	if err := engine.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer engine.Stop()

	p := &plan.Plan{
		Merchant:          merchant,
		Key:               "daily",
		Price:             types.USDC(100),
		Frequency:         86400 * time.Second,
		SettlementAccount: merchantAccount,
	}
	if err := engine.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan() = %v", err)
	}

	clock.Set(0)
	sub, err := engine.Subscribe(ctx, recur.SubscribeRequest{
		Subscriber:      subscriber,
		PlanAddress:     p.Address,
		FundingAccount:  fundingAccount,
		MerchantAccount: merchantAccount,
	})
	if err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	balance := func() int64 {
		a, err := ledger.Account(ctx, merchantAccount)
		if err != nil {
			t.Fatal(err)
		}
		return a.Balance.Amount
	}

	// Nothing due yet: sweeps must not charge.
	time.Sleep(30 * time.Millisecond)
	if got := balance(); got != 100 {
		t.Fatalf("merchant balance = %d, want 100 (initial charge only)", got)
	}

	// Cross the due time and wait for the sweeper to pick it up.
	clock.Set(86400)
	deadline := time.Now().Add(2 * time.Second)
	for balance() < 200 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never charged the due subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// The charge advanced the schedule past the frozen clock, so
	// further sweeps stay idle.
	time.Sleep(30 * time.Millisecond)
	if got := balance(); got != 200 {
		t.Fatalf("merchant balance = %d, want exactly 200", got)
	}

	got, err := engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 172800 {
		t.Fatalf("due = %d, want 172800", got.NextBillingTime.Unix())
	}
}
