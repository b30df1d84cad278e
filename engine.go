package recur

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plan"
	"github.com/xraph/recur/plugin"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/token"
	"github.com/xraph/recur/types"
)

// Engine is the recurring billing engine. It owns the Plan and
// Subscription state machines and drives charges through an external
// token ledger using a single bounded delegation per subscription.
type Engine struct {
	store     store.Store
	ledger    token.Ledger
	delegator token.Delegator
	plugins   *plugin.Registry
	logger    *slog.Logger
	clock     Clock
	locks     *addressLocks

	// Background biller
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	delegationCap  int64
	billInterval   time.Duration
	billBatch      int
	billerDisabled bool
}

// New creates a new Engine instance.
func New(s store.Store, ledger token.Ledger, delegator token.Delegator, opts ...Option) *Engine {
	e := &Engine{
		store:         s,
		ledger:        ledger,
		delegator:     delegator,
		plugins:       plugin.NewRegistry(),
		logger:        slog.Default(),
		clock:         SystemClock(),
		locks:         newAddressLocks(),
		stopChan:      make(chan struct{}),
		delegationCap: math.MaxInt64,
		billInterval:  time.Minute,
		billBatch:     100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithDelegationCap bounds the allowance granted to each subscription
// at subscribe time, in the plan's smallest denomination unit. The
// default is the maximum representable amount.
func WithDelegationCap(amount int64) Option {
	return func(e *Engine) {
		e.delegationCap = amount
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithBillInterval sets the sweep cadence of the background biller.
func WithBillInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.billInterval = d
	}
}

// WithBillBatch caps how many due subscriptions one sweep charges.
func WithBillBatch(n int) Option {
	return func(e *Engine) {
		e.billBatch = n
	}
}

// WithoutBiller disables the background sweep worker. Charges then
// only happen through explicit ProcessPayment calls.
func WithoutBiller() Option {
	return func(e *Engine) {
		e.billerDisabled = true
	}
}

// Start migrates the store, initializes plugins, and launches the
// background biller unless disabled.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	if !e.billerDisabled {
		e.wg.Add(1)
		go e.billWorker(ctx)
	}

	e.logger.Info("recur engine started",
		"bill_interval", e.billInterval,
		"bill_batch", e.billBatch,
		"biller_disabled", e.billerDisabled,
	)

	return nil
}

// Stop drains the biller and closes the store.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Plan Registry
// ──────────────────────────────────────────────────

// CreatePlan registers a new billing plan. The plan's address is
// derived from (merchant, key), so re-creating the same offer is
// rejected with ErrDuplicatePlan.
func (e *Engine) CreatePlan(ctx context.Context, p *plan.Plan) error {
	if p.Key == "" || !p.ValidTerms() {
		return ErrInvalidTerms
	}

	settlement, err := e.ledger.Account(ctx, p.SettlementAccount)
	if err != nil {
		return err
	}
	if !settlement.OwnedBy(p.Merchant) {
		return ErrAccountMismatch
	}
	if settlement.Denom() != p.Price.Denom {
		return ErrAccountMismatch
	}

	p.Address = id.PlanAddress(p.Merchant, p.Key)
	p.Status = plan.StatusActive
	p.Entity = types.NewEntityAt(e.clock.Now())

	if err := e.store.CreatePlan(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrDuplicatePlan
		}
		return err
	}

	e.plugins.EmitPlanCreated(ctx, p)
	e.logger.Info("plan created",
		"address", p.Address,
		"merchant", p.Merchant,
		"key", p.Key,
		"price", p.Price,
		"frequency", p.Frequency,
	)
	return nil
}

// GetPlan retrieves a plan by address.
func (e *Engine) GetPlan(ctx context.Context, addr id.Address) (*plan.Plan, error) {
	return e.store.GetPlan(ctx, addr)
}

// ListPlans lists a merchant's plans.
func (e *Engine) ListPlans(ctx context.Context, merchant id.MerchantID, opts plan.ListOpts) ([]*plan.Plan, error) {
	return e.store.ListPlans(ctx, merchant, opts)
}

// ArchivePlan retires a plan from new subscriptions. Existing
// subscriptions keep billing. Only the owning merchant may archive.
func (e *Engine) ArchivePlan(ctx context.Context, addr id.Address, caller id.MerchantID) error {
	p, err := e.store.GetPlan(ctx, addr)
	if err != nil {
		return err
	}
	if p.Merchant != caller {
		return ErrUnauthorized
	}

	if err := e.store.ArchivePlan(ctx, addr); err != nil {
		return err
	}

	e.plugins.EmitPlanArchived(ctx, addr.String())
	e.logger.Info("plan archived", "address", addr, "merchant", caller)
	return nil
}

// ──────────────────────────────────────────────────
// Subscription Engine
// ──────────────────────────────────────────────────

// SubscribeRequest carries everything Subscribe needs: who is
// enrolling, in what, and which token accounts the money moves
// between.
type SubscribeRequest struct {
	Subscriber      id.SubscriberID
	PlanAddress     id.Address
	FundingAccount  id.AccountID
	MerchantAccount id.AccountID
}

// Subscribe enrolls a subscriber in a plan. It approves a bounded
// delegation to the subscription's own address, takes the first charge
// as an owner-authorized transfer, and persists the schedule with
// NextBillingTime = StartTime + Frequency. Any failure leaves no
// partial state.
func (e *Engine) Subscribe(ctx context.Context, req SubscribeRequest) (*subscription.Subscription, error) {
	subAddr := id.SubscriptionAddress(req.Subscriber, req.PlanAddress)

	unlock := e.locks.acquire(subAddr)
	defer unlock()

	p, err := e.store.GetPlan(ctx, req.PlanAddress)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, ErrPlanInactive
	}

	if _, err := e.store.GetSubscription(ctx, subAddr); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	funding, err := e.ledger.Account(ctx, req.FundingAccount)
	if err != nil {
		return nil, err
	}
	if !funding.OwnedBy(req.Subscriber) {
		return nil, ErrAccountMismatch
	}
	if funding.Denom() != p.Price.Denom {
		return nil, ErrAccountMismatch
	}

	merchant, err := e.ledger.Account(ctx, req.MerchantAccount)
	if err != nil {
		return nil, err
	}
	if !merchant.OwnedBy(p.Merchant) {
		return nil, ErrAccountMismatch
	}
	if merchant.Denom() != p.Price.Denom {
		return nil, ErrAccountMismatch
	}

	// Reject up front rather than approve a delegation the first
	// charge would immediately fail.
	if !funding.Balance.Covers(p.Price) {
		return nil, ErrInsufficientFunds
	}

	allowance := types.New(e.delegationCap, p.Price.Denom)
	if err := e.delegator.Approve(ctx, req.FundingAccount, req.Subscriber, subAddr, allowance); err != nil {
		return nil, err
	}

	// First charge is owner-authorized; the delegation only feeds
	// recurring charges.
	if err := e.ledger.Transfer(ctx, req.FundingAccount, req.MerchantAccount, p.Price, token.AsOwner(req.Subscriber)); err != nil {
		e.revokeQuiet(ctx, req.FundingAccount, req.Subscriber)
		return nil, err
	}

	now := e.clock.Now()
	sub := &subscription.Subscription{
		Entity:          types.NewEntityAt(now),
		Address:         subAddr,
		Subscriber:      req.Subscriber,
		PlanAddress:     req.PlanAddress,
		FundingAccount:  req.FundingAccount,
		Status:          subscription.StatusActive,
		StartTime:       now,
		NextBillingTime: now.Add(p.Frequency),
	}

	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		// Unwind the charge and the delegation; the subscriber must
		// end exactly where they started.
		e.refundQuiet(ctx, req.MerchantAccount, req.FundingAccount, p.Price, p.Merchant)
		e.revokeQuiet(ctx, req.FundingAccount, req.Subscriber)
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	e.recordPayment(ctx, sub.Address, p.Price, payment.KindInitial, payment.StatusSucceeded, "", now)

	e.plugins.EmitSubscribed(ctx, sub)
	e.logger.Info("subscribed",
		"subscription", sub.Address,
		"subscriber", sub.Subscriber,
		"plan", sub.PlanAddress,
		"next_billing_time", sub.NextBillingTime,
	)
	return sub, nil
}

// GetSubscription retrieves a subscription by address.
func (e *Engine) GetSubscription(ctx context.Context, addr id.Address) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, addr)
}

// ListSubscriptions lists a subscriber's subscriptions.
func (e *Engine) ListSubscriptions(ctx context.Context, subscriber id.SubscriberID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return e.store.ListSubscriptions(ctx, subscriber, opts)
}

// ListPayments lists the charge history of a subscription.
func (e *Engine) ListPayments(ctx context.Context, subAddr id.Address, opts payment.ListOpts) ([]*payment.Payment, error) {
	return e.store.ListPayments(ctx, subAddr, opts)
}

// ProcessPayment executes one due recurring charge. Anyone may call
// it: the due-time gate and the delegation bound are what protect the
// subscriber, not the caller's identity. On success the schedule
// advances by exactly one plan frequency. On ledger failure the
// subscription is untouched and a failed payment row records the
// attempt.
func (e *Engine) ProcessPayment(ctx context.Context, subAddr id.Address, fundingAccount, merchantAccount id.AccountID) error {
	unlock := e.locks.acquire(subAddr)
	defer unlock()

	sub, err := e.store.GetSubscription(ctx, subAddr)
	if err != nil {
		return err
	}
	if !sub.IsActive() {
		return ErrSubscriptionInactive
	}

	p, err := e.store.GetPlan(ctx, sub.PlanAddress)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	if !sub.Due(now) {
		return ErrPaymentNotDue
	}

	if fundingAccount != sub.FundingAccount {
		return ErrAccountMismatch
	}

	merchant, err := e.ledger.Account(ctx, merchantAccount)
	if err != nil {
		return err
	}
	if !merchant.OwnedBy(p.Merchant) {
		return ErrAccountMismatch
	}
	if merchant.Denom() != p.Price.Denom {
		return ErrAccountMismatch
	}

	auth := token.AsDelegate(sub.Address)
	if err := e.ledger.Transfer(ctx, fundingAccount, merchantAccount, p.Price, auth); err != nil {
		e.recordPayment(ctx, sub.Address, p.Price, payment.KindRecurring, payment.StatusFailed, err.Error(), now)
		e.plugins.EmitPaymentFailed(ctx, sub.Address.String(), err)
		e.logger.Warn("payment failed",
			"subscription", sub.Address,
			"error", err,
		)
		return err
	}

	// Fixed-step advance keeps the schedule drift-free regardless of
	// when the charge actually lands.
	sub.Advance(p.Frequency)
	sub.TouchAt(now)
	if err := e.store.UpdateSubscription(ctx, sub); err != nil {
		// The transfer settled but the schedule did not advance, so the
		// period is still open. Return the charge or a retry would bill
		// it twice.
		e.refundQuiet(ctx, merchantAccount, fundingAccount, p.Price, p.Merchant)
		return err
	}

	pay := e.recordPayment(ctx, sub.Address, p.Price, payment.KindRecurring, payment.StatusSucceeded, "", now)

	e.plugins.EmitPaymentProcessed(ctx, pay)
	e.logger.Info("payment processed",
		"subscription", sub.Address,
		"amount", p.Price,
		"next_billing_time", sub.NextBillingTime,
	)
	return nil
}

// Cancel stops a subscription. Only the subscriber may cancel. The
// record survives for audit; it never bills again unless resumed.
func (e *Engine) Cancel(ctx context.Context, subAddr id.Address, caller id.SubscriberID) error {
	unlock := e.locks.acquire(subAddr)
	defer unlock()

	sub, err := e.store.GetSubscription(ctx, subAddr)
	if err != nil {
		return err
	}
	if sub.Subscriber != caller {
		return ErrUnauthorized
	}
	if sub.Status == subscription.StatusCanceled {
		return ErrSubscriptionInactive
	}

	now := e.clock.Now()
	sub.Status = subscription.StatusCanceled
	sub.CanceledAt = &now
	sub.TouchAt(now)

	if err := e.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	e.plugins.EmitSubscriptionCanceled(ctx, sub)
	e.logger.Info("subscription canceled", "subscription", subAddr, "subscriber", caller)
	return nil
}

// Pause suspends billing without tearing the subscription down. Only
// the subscriber may pause, and only an active subscription.
func (e *Engine) Pause(ctx context.Context, subAddr id.Address, caller id.SubscriberID) error {
	unlock := e.locks.acquire(subAddr)
	defer unlock()

	sub, err := e.store.GetSubscription(ctx, subAddr)
	if err != nil {
		return err
	}
	if sub.Subscriber != caller {
		return ErrUnauthorized
	}
	if !sub.IsActive() {
		return ErrSubscriptionInactive
	}

	now := e.clock.Now()
	sub.Status = subscription.StatusPaused
	sub.PausedAt = &now
	sub.TouchAt(now)

	if err := e.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	e.plugins.EmitSubscriptionPaused(ctx, sub)
	e.logger.Info("subscription paused", "subscription", subAddr, "subscriber", caller)
	return nil
}

// Resume reactivates a paused or canceled subscription. The due time
// is deliberately left where it was: if billing periods elapsed while
// inactive, the next charge is immediately due and the schedule stays
// anchored to the original cadence.
func (e *Engine) Resume(ctx context.Context, subAddr id.Address, caller id.SubscriberID) error {
	unlock := e.locks.acquire(subAddr)
	defer unlock()

	sub, err := e.store.GetSubscription(ctx, subAddr)
	if err != nil {
		return err
	}
	if sub.Subscriber != caller {
		return ErrUnauthorized
	}
	if sub.IsActive() {
		return nil
	}

	now := e.clock.Now()
	sub.Status = subscription.StatusActive
	sub.ResumedAt = &now
	sub.TouchAt(now)

	if err := e.store.UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	e.plugins.EmitSubscriptionResumed(ctx, sub)
	e.logger.Info("subscription resumed",
		"subscription", subAddr,
		"subscriber", caller,
		"next_billing_time", sub.NextBillingTime,
	)
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// recordPayment writes a charge audit row. Failures are logged, not
// returned: the ledger has already settled and the schedule is the
// source of truth.
func (e *Engine) recordPayment(ctx context.Context, subAddr id.Address, amount types.Money, kind payment.Kind, status payment.Status, reason string, at time.Time) *payment.Payment {
	pay := &payment.Payment{
		Entity:              types.NewEntityAt(at),
		ID:                  id.NewPaymentID(),
		SubscriptionAddress: subAddr,
		Amount:              amount,
		Kind:                kind,
		Status:              status,
		Reason:              reason,
		PaidAt:              at,
	}
	if err := e.store.CreatePayment(ctx, pay); err != nil {
		e.logger.Warn("failed to record payment",
			"subscription", subAddr,
			"error", err,
		)
	}
	return pay
}

func (e *Engine) revokeQuiet(ctx context.Context, account id.AccountID, owner id.SubscriberID) {
	if err := e.delegator.Revoke(ctx, account, owner); err != nil {
		e.logger.Warn("failed to revoke delegation during unwind",
			"account", account,
			"error", err,
		)
	}
}

func (e *Engine) refundQuiet(ctx context.Context, from, to id.AccountID, amount types.Money, owner id.MerchantID) {
	if err := e.ledger.Transfer(ctx, from, to, amount, token.AsOwner(owner)); err != nil {
		e.logger.Warn("failed to refund charge during unwind",
			"from", from,
			"to", to,
			"error", err,
		)
	}
}
