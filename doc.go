// Package recur provides a recurring billing engine over an
// account-based token ledger for Go applications.
//
// Recur is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Plan registry with deterministic tuple-derived addresses
//   - Subscription lifecycle: subscribe, pause, resume, cancel
//   - Drift-free fixed-increment billing schedules
//   - Bounded, revocable delegation per subscription
//   - A background biller that sweeps due subscriptions
//   - Per-charge payment audit trail
//
// # Quick Start
//
// Create an engine with your preferred store and a token substrate:
//
//	import (
//	    "github.com/xraph/recur"
//	    storememory "github.com/xraph/recur/store/memory"
//	    tokenmemory "github.com/xraph/recur/token/memory"
//	)
//
//	ledger := tokenmemory.New()
//	engine := recur.New(storememory.New(), ledger, ledger)
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// Plans define a merchant's recurring offer: a fixed price in one
// denomination and a fixed billing frequency:
//
//	p := &plan.Plan{
//	    Merchant:          merchantID,
//	    Key:               "pro-monthly",
//	    Price:             recur.USDC(9_990_000),
//	    Frequency:         30 * 24 * time.Hour,
//	    SettlementAccount: merchantAccount,
//	}
//	err := engine.CreatePlan(ctx, p)
//
// Subscriptions enroll a subscriber in a plan. Subscribing approves a
// bounded delegation, takes the first charge immediately, and anchors
// the schedule:
//
//	sub, err := engine.Subscribe(ctx, recur.SubscribeRequest{
//	    Subscriber:      subscriberID,
//	    PlanAddress:     p.Address,
//	    FundingAccount:  fundingAccount,
//	    MerchantAccount: merchantAccount,
//	})
//
// Recurring charges go through ProcessPayment, either explicitly or
// via the background biller. A charge before the due time fails with
// ErrPaymentNotDue; a successful charge advances the due time by
// exactly one frequency, so the schedule never drifts.
//
// # Money
//
// All monetary calculations use integer arithmetic in the token's
// smallest unit. A Money value pairs an amount with a denomination
// and never converts between denominations.
//
// # Identity
//
// Actors and accounts use TypeID identifiers:
//
//	mrc_01h2xcejqtf2nbrexx3vqjhp41   // Merchant
//	sbr_01h2xcejqtf2nbrexx3vqjhp41   // Subscriber
//	acct_01h455vb4pex5vsknk084sn02q  // Token account
//
// Plans and subscriptions instead live at deterministic addresses
// derived from their identifying tuple: the same (merchant, key) or
// (subscriber, plan) always maps to the same address, which is what
// makes duplicate detection and delegation identity work.
package recur
