package recur_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/recur"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plan"
	recurstore "github.com/xraph/recur/store"
	storememory "github.com/xraph/recur/store/memory"
	"github.com/xraph/recur/subscription"
	tokenmemory "github.com/xraph/recur/token/memory"
	"github.com/xraph/recur/types"
)

// fakeClock is a settable time source anchored at the Unix epoch so
// test times read as plain offsets in seconds.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(0, 0).UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.Unix(seconds, 0).UTC()
}

type fixture struct {
	engine          *recur.Engine
	ledger          *tokenmemory.Ledger
	clock           *fakeClock
	merchant        id.MerchantID
	subscriber      id.SubscriberID
	merchantAccount id.AccountID
	fundingAccount  id.AccountID
}

func newFixture(t *testing.T, balance int64, opts ...recur.Option) *fixture {
	t.Helper()

	f := &fixture{
		ledger:     tokenmemory.New(),
		clock:      newFakeClock(),
		merchant:   id.NewMerchantID(),
		subscriber: id.NewSubscriberID(),
	}
	f.merchantAccount = f.ledger.Open(f.merchant, types.USDC(0))
	f.fundingAccount = f.ledger.Open(f.subscriber, types.USDC(balance))

	opts = append([]recur.Option{
		recur.WithClock(f.clock),
		recur.WithoutBiller(),
	}, opts...)
	f.engine = recur.New(storememory.New(), f.ledger, f.ledger, opts...)

	if err := f.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	t.Cleanup(func() {
		if err := f.engine.Stop(); err != nil {
			t.Errorf("Stop() = %v", err)
		}
	})

	return f
}

// dailyPlan registers a plan charging 100 base units every 86400s.
func (f *fixture) dailyPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p := &plan.Plan{
		Merchant:          f.merchant,
		Key:               "daily",
		Name:              "Daily",
		Price:             types.USDC(100),
		Frequency:         86400 * time.Second,
		SettlementAccount: f.merchantAccount,
	}
	if err := f.engine.CreatePlan(context.Background(), p); err != nil {
		t.Fatalf("CreatePlan() = %v", err)
	}
	return p
}

func (f *fixture) subscribe(t *testing.T, p *plan.Plan) *subscription.Subscription {
	t.Helper()
	sub, err := f.engine.Subscribe(context.Background(), recur.SubscribeRequest{
		Subscriber:      f.subscriber,
		PlanAddress:     p.Address,
		FundingAccount:  f.fundingAccount,
		MerchantAccount: f.merchantAccount,
	})
	if err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	return sub
}

func (f *fixture) balance(t *testing.T, acct id.AccountID) int64 {
	t.Helper()
	a, err := f.ledger.Account(context.Background(), acct)
	if err != nil {
		t.Fatalf("Account(%v) = %v", acct, err)
	}
	return a.Balance.Amount
}

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("derives deterministic address", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)

		want := id.PlanAddress(f.merchant, "daily")
		if !p.Address.Equal(want) {
			t.Errorf("plan address = %v, want %v", p.Address, want)
		}
		if p.Status != plan.StatusActive {
			t.Errorf("plan status = %v, want active", p.Status)
		}

		got, err := f.engine.GetPlan(ctx, p.Address)
		if err != nil {
			t.Fatalf("GetPlan() = %v", err)
		}
		if got.Key != "daily" || !got.Price.Equal(types.USDC(100)) {
			t.Errorf("stored plan = %+v", got)
		}
	})

	t.Run("invalid terms", func(t *testing.T) {
		f := newFixture(t, 1000)

		tests := []struct {
			name string
			plan plan.Plan
		}{
			{"zero price", plan.Plan{Key: "p", Price: types.USDC(0), Frequency: time.Hour}},
			{"negative price", plan.Plan{Key: "p", Price: types.USDC(-5), Frequency: time.Hour}},
			{"zero frequency", plan.Plan{Key: "p", Price: types.USDC(100)}},
			{"sub-second frequency", plan.Plan{Key: "p", Price: types.USDC(100), Frequency: 1500 * time.Millisecond}},
			{"empty key", plan.Plan{Price: types.USDC(100), Frequency: time.Hour}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := tt.plan
				p.Merchant = f.merchant
				p.SettlementAccount = f.merchantAccount
				if err := f.engine.CreatePlan(ctx, &p); !errors.Is(err, recur.ErrInvalidTerms) {
					t.Errorf("CreatePlan() = %v, want ErrInvalidTerms", err)
				}
			})
		}
	})

	t.Run("duplicate plan", func(t *testing.T) {
		f := newFixture(t, 1000)
		f.dailyPlan(t)

		dup := &plan.Plan{
			Merchant:          f.merchant,
			Key:               "daily",
			Price:             types.USDC(999),
			Frequency:         time.Hour,
			SettlementAccount: f.merchantAccount,
		}
		if err := f.engine.CreatePlan(ctx, dup); !errors.Is(err, recur.ErrDuplicatePlan) {
			t.Errorf("CreatePlan(dup) = %v, want ErrDuplicatePlan", err)
		}
	})

	t.Run("settlement account not owned by merchant", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := &plan.Plan{
			Merchant:          f.merchant,
			Key:               "p",
			Price:             types.USDC(100),
			Frequency:         time.Hour,
			SettlementAccount: f.fundingAccount, // subscriber's account
		}
		if err := f.engine.CreatePlan(ctx, p); !errors.Is(err, recur.ErrAccountMismatch) {
			t.Errorf("CreatePlan() = %v, want ErrAccountMismatch", err)
		}
	})

	t.Run("settlement denomination mismatch", func(t *testing.T) {
		f := newFixture(t, 1000)
		solAccount := f.ledger.Open(f.merchant, types.SOL(0))
		p := &plan.Plan{
			Merchant:          f.merchant,
			Key:               "p",
			Price:             types.USDC(100),
			Frequency:         time.Hour,
			SettlementAccount: solAccount,
		}
		if err := f.engine.CreatePlan(ctx, p); !errors.Is(err, recur.ErrAccountMismatch) {
			t.Errorf("CreatePlan() = %v, want ErrAccountMismatch", err)
		}
	})
}

func TestArchivePlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	p := f.dailyPlan(t)

	if err := f.engine.ArchivePlan(ctx, p.Address, id.NewMerchantID()); !errors.Is(err, recur.ErrUnauthorized) {
		t.Fatalf("ArchivePlan(stranger) = %v, want ErrUnauthorized", err)
	}

	if err := f.engine.ArchivePlan(ctx, p.Address, f.merchant); err != nil {
		t.Fatalf("ArchivePlan() = %v", err)
	}

	// Archived plans reject new subscriptions.
	_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
		Subscriber:      f.subscriber,
		PlanAddress:     p.Address,
		FundingAccount:  f.fundingAccount,
		MerchantAccount: f.merchantAccount,
	})
	if !errors.Is(err, recur.ErrPlanInactive) {
		t.Fatalf("Subscribe(archived) = %v, want ErrPlanInactive", err)
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("success takes first charge and anchors schedule", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)

		sub := f.subscribe(t, p)

		want := id.SubscriptionAddress(f.subscriber, p.Address)
		if !sub.Address.Equal(want) {
			t.Errorf("subscription address = %v, want %v", sub.Address, want)
		}
		if got := f.balance(t, f.fundingAccount); got != 900 {
			t.Errorf("funding balance = %d, want 900", got)
		}
		if got := f.balance(t, f.merchantAccount); got != 100 {
			t.Errorf("merchant balance = %d, want 100", got)
		}
		if got := sub.NextBillingTime.Unix(); got != 86400 {
			t.Errorf("next billing time = %d, want 86400", got)
		}
		if sub.Status != subscription.StatusActive {
			t.Errorf("status = %v, want active", sub.Status)
		}

		// The funding account carries a delegation to the
		// subscription's own address.
		acct, err := f.ledger.Account(ctx, f.fundingAccount)
		if err != nil {
			t.Fatal(err)
		}
		if !acct.HasDelegate() || !acct.Delegate.Equal(sub.Address) {
			t.Errorf("delegate = %v, want %v", acct.Delegate, sub.Address)
		}

		// One initial payment row.
		pays, err := f.engine.ListPayments(ctx, sub.Address, payment.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(pays) != 1 || pays[0].Kind != payment.KindInitial || pays[0].Status != payment.StatusSucceeded {
			t.Errorf("payments = %+v, want one succeeded initial", pays)
		}
	})

	t.Run("plan not found", func(t *testing.T) {
		f := newFixture(t, 1000)
		_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
			Subscriber:      f.subscriber,
			PlanAddress:     id.PlanAddress(f.merchant, "missing"),
			FundingAccount:  f.fundingAccount,
			MerchantAccount: f.merchantAccount,
		})
		if !errors.Is(err, recur.ErrPlanNotFound) {
			t.Errorf("Subscribe() = %v, want ErrPlanNotFound", err)
		}
	})

	t.Run("already subscribed", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		f.subscribe(t, p)

		_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
			Subscriber:      f.subscriber,
			PlanAddress:     p.Address,
			FundingAccount:  f.fundingAccount,
			MerchantAccount: f.merchantAccount,
		})
		if !errors.Is(err, recur.ErrAlreadySubscribed) {
			t.Errorf("Subscribe(again) = %v, want ErrAlreadySubscribed", err)
		}
		// No double charge.
		if got := f.balance(t, f.fundingAccount); got != 900 {
			t.Errorf("funding balance = %d, want 900", got)
		}
	})

	t.Run("funding account not owned by subscriber", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		other := f.ledger.Open(id.NewSubscriberID(), types.USDC(1000))

		_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
			Subscriber:      f.subscriber,
			PlanAddress:     p.Address,
			FundingAccount:  other,
			MerchantAccount: f.merchantAccount,
		})
		if !errors.Is(err, recur.ErrAccountMismatch) {
			t.Errorf("Subscribe() = %v, want ErrAccountMismatch", err)
		}
	})

	t.Run("merchant account not owned by plan merchant", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		stranger := f.ledger.Open(id.NewMerchantID(), types.USDC(0))

		_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
			Subscriber:      f.subscriber,
			PlanAddress:     p.Address,
			FundingAccount:  f.fundingAccount,
			MerchantAccount: stranger,
		})
		if !errors.Is(err, recur.ErrAccountMismatch) {
			t.Errorf("Subscribe() = %v, want ErrAccountMismatch", err)
		}
	})

	t.Run("insufficient funds leaves no state", func(t *testing.T) {
		f := newFixture(t, 50) // below the 100 first charge
		p := f.dailyPlan(t)

		_, err := f.engine.Subscribe(ctx, recur.SubscribeRequest{
			Subscriber:      f.subscriber,
			PlanAddress:     p.Address,
			FundingAccount:  f.fundingAccount,
			MerchantAccount: f.merchantAccount,
		})
		if !errors.Is(err, recur.ErrInsufficientFunds) {
			t.Fatalf("Subscribe() = %v, want ErrInsufficientFunds", err)
		}

		if got := f.balance(t, f.fundingAccount); got != 50 {
			t.Errorf("funding balance = %d, want 50", got)
		}
		acct, err := f.ledger.Account(ctx, f.fundingAccount)
		if err != nil {
			t.Fatal(err)
		}
		if acct.HasDelegate() {
			t.Error("delegation left behind after failed subscribe")
		}
		subAddr := id.SubscriptionAddress(f.subscriber, p.Address)
		if _, err := f.engine.GetSubscription(ctx, subAddr); !errors.Is(err, recur.ErrSubscriptionNotFound) {
			t.Errorf("GetSubscription() = %v, want ErrSubscriptionNotFound", err)
		}
	})
}

// TestBillingScenario walks the canonical end-to-end schedule:
// subscribe, one on-time charge, one premature attempt, cancel, a
// charge against the canceled record, resume, and the catch-up charge.
func TestBillingScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	p := f.dailyPlan(t)

	// t=0: subscribe. First charge moves 100, due at 86400.
	f.clock.Set(0)
	sub := f.subscribe(t, p)
	if got := sub.NextBillingTime.Unix(); got != 86400 {
		t.Fatalf("after subscribe: due = %d, want 86400", got)
	}
	if got := f.balance(t, f.merchantAccount); got != 100 {
		t.Fatalf("after subscribe: merchant balance = %d, want 100", got)
	}

	// t=86400: charge succeeds, due advances one fixed step.
	f.clock.Set(86400)
	if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); err != nil {
		t.Fatalf("ProcessPayment(86400) = %v", err)
	}
	got, err := f.engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 172800 {
		t.Fatalf("after charge: due = %d, want 172800", got.NextBillingTime.Unix())
	}
	if bal := f.balance(t, f.merchantAccount); bal != 200 {
		t.Fatalf("after charge: merchant balance = %d, want 200", bal)
	}

	// t=172799: one second early.
	f.clock.Set(172799)
	if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); !errors.Is(err, recur.ErrPaymentNotDue) {
		t.Fatalf("ProcessPayment(172799) = %v, want ErrPaymentNotDue", err)
	}

	// t=200000: cancel.
	f.clock.Set(200000)
	if err := f.engine.Cancel(ctx, sub.Address, f.subscriber); err != nil {
		t.Fatalf("Cancel() = %v", err)
	}

	// t=300000: canceled subscriptions never bill.
	f.clock.Set(300000)
	if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); !errors.Is(err, recur.ErrSubscriptionInactive) {
		t.Fatalf("ProcessPayment(canceled) = %v, want ErrSubscriptionInactive", err)
	}
	if bal := f.balance(t, f.merchantAccount); bal != 200 {
		t.Fatalf("after rejected charges: merchant balance = %d, want 200", bal)
	}

	// t=400000: resume. The due time is untouched.
	f.clock.Set(400000)
	if err := f.engine.Resume(ctx, sub.Address, f.subscriber); err != nil {
		t.Fatalf("Resume() = %v", err)
	}
	got, err = f.engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 172800 {
		t.Fatalf("after resume: due = %d, want 172800 (untouched)", got.NextBillingTime.Unix())
	}

	// t=400001: catch-up charge succeeds immediately; the schedule
	// stays anchored, so due becomes 259200, not 400001+86400.
	f.clock.Set(400001)
	if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); err != nil {
		t.Fatalf("ProcessPayment(catch-up) = %v", err)
	}
	got, err = f.engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 259200 {
		t.Fatalf("after catch-up: due = %d, want 259200", got.NextBillingTime.Unix())
	}
	if bal := f.balance(t, f.merchantAccount); bal != 300 {
		t.Fatalf("after catch-up: merchant balance = %d, want 300", bal)
	}
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown subscription", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		addr := id.SubscriptionAddress(f.subscriber, p.Address)
		if err := f.engine.ProcessPayment(ctx, addr, f.fundingAccount, f.merchantAccount); !errors.Is(err, recur.ErrSubscriptionNotFound) {
			t.Errorf("ProcessPayment() = %v, want ErrSubscriptionNotFound", err)
		}
	})

	t.Run("paused subscription", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		if err := f.engine.Pause(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatal(err)
		}
		f.clock.Set(90000)
		if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); !errors.Is(err, recur.ErrSubscriptionInactive) {
			t.Errorf("ProcessPayment(paused) = %v, want ErrSubscriptionInactive", err)
		}
	})

	t.Run("wrong funding account", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)
		other := f.ledger.Open(f.subscriber, types.USDC(1000))

		f.clock.Set(90000)
		if err := f.engine.ProcessPayment(ctx, sub.Address, other, f.merchantAccount); !errors.Is(err, recur.ErrAccountMismatch) {
			t.Errorf("ProcessPayment(wrong funding) = %v, want ErrAccountMismatch", err)
		}
	})

	t.Run("ledger failure leaves schedule untouched", func(t *testing.T) {
		f := newFixture(t, 150) // 100 first charge, 50 left
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		f.clock.Set(90000)
		err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount)
		if !errors.Is(err, recur.ErrInsufficientFunds) {
			t.Fatalf("ProcessPayment() = %v, want ErrInsufficientFunds", err)
		}

		got, err := f.engine.GetSubscription(ctx, sub.Address)
		if err != nil {
			t.Fatal(err)
		}
		if got.NextBillingTime.Unix() != 86400 {
			t.Errorf("due = %d, want 86400 (unchanged)", got.NextBillingTime.Unix())
		}
		if got.Status != subscription.StatusActive {
			t.Errorf("status = %v, want active", got.Status)
		}

		// The attempt is on the audit trail.
		pays, err := f.engine.ListPayments(ctx, sub.Address, payment.ListOpts{Status: payment.StatusFailed})
		if err != nil {
			t.Fatal(err)
		}
		if len(pays) != 1 || pays[0].Reason == "" {
			t.Errorf("failed payments = %+v, want one with a reason", pays)
		}
	})

	t.Run("delegation cap bounds total pull", func(t *testing.T) {
		f := newFixture(t, 1000, recur.WithDelegationCap(150))
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		// First recurring charge consumes 100 of the 150 allowance.
		f.clock.Set(86400)
		if err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount); err != nil {
			t.Fatalf("ProcessPayment(first) = %v", err)
		}

		// 50 left: the next charge must not go through.
		f.clock.Set(172800)
		err := f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount)
		if !errors.Is(err, recur.ErrDelegationExceeded) {
			t.Fatalf("ProcessPayment(over cap) = %v, want ErrDelegationExceeded", err)
		}
		if bal := f.balance(t, f.merchantAccount); bal != 200 {
			t.Errorf("merchant balance = %d, want 200", bal)
		}
	})
}

// flakySubscriptionStore fails a fixed number of UpdateSubscription
// calls before recovering, like a backend dropping its connection
// mid-operation.
type flakySubscriptionStore struct {
	recurstore.Store
	failures int
}

func (s *flakySubscriptionStore) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return s.Store.UpdateSubscription(ctx, sub)
}

func TestProcessPaymentPersistFailureRefunds(t *testing.T) {
	ctx := context.Background()

	ledger := tokenmemory.New()
	clock := newFakeClock()
	merchant := id.NewMerchantID()
	subscriber := id.NewSubscriberID()
	merchantAccount := ledger.Open(merchant, types.USDC(0))
	fundingAccount := ledger.Open(subscriber, types.USDC(1000))

	st := &flakySubscriptionStore{Store: storememory.New(), failures: 1}
	engine := recur.New(st, ledger, ledger,
		recur.WithClock(clock),
		recur.WithoutBiller(),
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
	sub, err := engine.Subscribe(ctx, recur.SubscribeRequest{
		Subscriber:      subscriber,
		PlanAddress:     p.Address,
		FundingAccount:  fundingAccount,
		MerchantAccount: merchantAccount,
	})
	if err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	// The transfer settles but the schedule fails to persist: the
	// charge must come back, or the retry below would bill the same
	// period twice.
	clock.Set(86400)
	if err := engine.ProcessPayment(ctx, sub.Address, fundingAccount, merchantAccount); err == nil {
		t.Fatal("ProcessPayment() = nil, want persist error")
	}

	check := func(wantMerchant, wantFunding int64) {
		t.Helper()
		m, err := ledger.Account(ctx, merchantAccount)
		if err != nil {
			t.Fatal(err)
		}
		if m.Balance.Amount != wantMerchant {
			t.Errorf("merchant balance = %d, want %d", m.Balance.Amount, wantMerchant)
		}
		f, err := ledger.Account(ctx, fundingAccount)
		if err != nil {
			t.Fatal(err)
		}
		if f.Balance.Amount != wantFunding {
			t.Errorf("funding balance = %d, want %d", f.Balance.Amount, wantFunding)
		}
	}
	check(100, 900) // initial charge only; the failed period was refunded

	got, err := engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 86400 {
		t.Errorf("due = %d, want 86400 (unchanged)", got.NextBillingTime.Unix())
	}
	if got.Status != subscription.StatusActive {
		t.Errorf("status = %v, want active", got.Status)
	}

	// A retry at the same clock charges the open period exactly once.
	if err := engine.ProcessPayment(ctx, sub.Address, fundingAccount, merchantAccount); err != nil {
		t.Fatalf("ProcessPayment(retry) = %v", err)
	}
	check(200, 800)

	got, err = engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.NextBillingTime.Unix() != 172800 {
		t.Errorf("due = %d, want 172800", got.NextBillingTime.Unix())
	}
}

func TestLifecycleAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1000)
	p := f.dailyPlan(t)
	sub := f.subscribe(t, p)

	stranger := id.NewSubscriberID()

	if err := f.engine.Cancel(ctx, sub.Address, stranger); !errors.Is(err, recur.ErrUnauthorized) {
		t.Errorf("Cancel(stranger) = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.Pause(ctx, sub.Address, stranger); !errors.Is(err, recur.ErrUnauthorized) {
		t.Errorf("Pause(stranger) = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.Resume(ctx, sub.Address, stranger); !errors.Is(err, recur.ErrUnauthorized) {
		t.Errorf("Resume(stranger) = %v, want ErrUnauthorized", err)
	}

	// Rejected calls left the record alone.
	got, err := f.engine.GetSubscription(ctx, sub.Address)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != subscription.StatusActive {
		t.Errorf("status = %v, want active", got.Status)
	}
}

func TestPauseResumeCancelTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("pause then resume", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		if err := f.engine.Pause(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatal(err)
		}
		got, _ := f.engine.GetSubscription(ctx, sub.Address)
		if got.Status != subscription.StatusPaused || got.PausedAt == nil {
			t.Fatalf("after pause: %+v", got)
		}

		// Pausing an already-inactive subscription is rejected.
		if err := f.engine.Pause(ctx, sub.Address, f.subscriber); !errors.Is(err, recur.ErrSubscriptionInactive) {
			t.Errorf("Pause(paused) = %v, want ErrSubscriptionInactive", err)
		}

		if err := f.engine.Resume(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatal(err)
		}
		got, _ = f.engine.GetSubscription(ctx, sub.Address)
		if got.Status != subscription.StatusActive || got.ResumedAt == nil {
			t.Fatalf("after resume: %+v", got)
		}

		// Resuming an active subscription is a no-op.
		if err := f.engine.Resume(ctx, sub.Address, f.subscriber); err != nil {
			t.Errorf("Resume(active) = %v, want nil", err)
		}
	})

	t.Run("cancel twice", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		if err := f.engine.Cancel(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatal(err)
		}
		if err := f.engine.Cancel(ctx, sub.Address, f.subscriber); !errors.Is(err, recur.ErrSubscriptionInactive) {
			t.Errorf("Cancel(canceled) = %v, want ErrSubscriptionInactive", err)
		}
	})

	t.Run("cancel a paused subscription", func(t *testing.T) {
		f := newFixture(t, 1000)
		p := f.dailyPlan(t)
		sub := f.subscribe(t, p)

		if err := f.engine.Pause(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatal(err)
		}
		if err := f.engine.Cancel(ctx, sub.Address, f.subscriber); err != nil {
			t.Fatalf("Cancel(paused) = %v", err)
		}
		got, _ := f.engine.GetSubscription(ctx, sub.Address)
		if got.Status != subscription.StatusCanceled || got.CanceledAt == nil {
			t.Fatalf("after cancel: %+v", got)
		}
	})
}

func TestConcurrentProcessPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10_000)
	p := f.dailyPlan(t)
	sub := f.subscribe(t, p)

	f.clock.Set(86400)

	// Many racing charges for one due period: exactly one may settle.
	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.engine.ProcessPayment(ctx, sub.Address, f.fundingAccount, f.merchantAccount)
		}(i)
	}
	wg.Wait()

	var ok, notDue int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, recur.ErrPaymentNotDue):
			notDue++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || notDue != callers-1 {
		t.Fatalf("succeeded = %d, not due = %d; want 1 and %d", ok, notDue, callers-1)
	}
	if bal := f.balance(t, f.merchantAccount); bal != 200 {
		t.Fatalf("merchant balance = %d, want 200 (exactly one recurring charge)", bal)
	}
}
