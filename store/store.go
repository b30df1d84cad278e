package store

import (
	"context"
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plan"
	"github.com/xraph/recur/subscription"
)

// Store is the unified storage interface for all Recur entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Plans and subscriptions are keyed by their derived addresses:
// creating a record whose address already exists fails, loading a
// missing address fails, and neither record type is ever deleted.
type Store interface {
	// Plan methods
	CreatePlan(ctx context.Context, p *plan.Plan) error
	GetPlan(ctx context.Context, addr id.Address) (*plan.Plan, error)
	ListPlans(ctx context.Context, merchant id.MerchantID, opts plan.ListOpts) ([]*plan.Plan, error)
	ArchivePlan(ctx context.Context, addr id.Address) error

	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, addr id.Address) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, subscriber id.SubscriberID, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	ListDueSubscriptions(ctx context.Context, now time.Time, limit int) ([]*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error

	// Payment methods
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	ListPayments(ctx context.Context, subscriptionAddr id.Address, opts payment.ListOpts) ([]*payment.Payment, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
