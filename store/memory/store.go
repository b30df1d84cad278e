package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/xraph/recur"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plan"
	recurstore "github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
)

// compile-time interface check
var _ recurstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Plan storage, keyed by derived address
	plans map[string]*plan.Plan

	// Subscription storage, keyed by derived address
	subscriptions map[string]*subscription.Subscription

	// Payment storage, keyed by payment ID
	payments map[string]*payment.Payment
}

func New() *Store {
	return &Store{
		plans:         make(map[string]*plan.Plan),
		subscriptions: make(map[string]*subscription.Subscription),
		payments:      make(map[string]*payment.Payment),
	}
}

func clonePlan(p *plan.Plan) *plan.Plan {
	cp := *p
	cp.Metadata = maps.Clone(p.Metadata)
	return &cp
}

// Plan Store implementation.
//
// Reads hand back detached copies, matching the row-materializing
// backends: mutating a result does not touch stored state until the
// corresponding write method is called.
func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.Address.String()]; exists {
		return recur.ErrAlreadyExists
	}
	s.plans[p.Address.String()] = clonePlan(p)
	return nil
}

func (s *Store) GetPlan(_ context.Context, addr id.Address) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.plans[addr.String()]; ok {
		return clonePlan(p), nil
	}
	return nil, recur.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, merchant id.MerchantID, opts plan.ListOpts) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*plan.Plan, 0)
	for _, p := range s.plans {
		if p.Merchant == merchant {
			if opts.Status == "" || p.Status == opts.Status {
				result = append(result, clonePlan(p))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) ArchivePlan(_ context.Context, addr id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, exists := s.plans[addr.String()]; exists {
		p.Status = plan.StatusArchived
		return nil
	}
	return recur.ErrPlanNotFound
}

// Subscription Store implementation
func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.Address.String()]; exists {
		return recur.ErrAlreadyExists
	}
	cp := *sub
	s.subscriptions[sub.Address.String()] = &cp
	return nil
}

func (s *Store) GetSubscription(_ context.Context, addr id.Address) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[addr.String()]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, recur.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptions(_ context.Context, subscriber id.SubscriberID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Subscriber == subscriber {
			if opts.Status == "" || sub.Status == opts.Status {
				cp := *sub
				result = append(result, &cp)
			}
		}
	}
	return result, nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, now time.Time, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Status == subscription.StatusActive && !now.Before(sub.NextBillingTime) {
			cp := *sub
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextBillingTime.Before(result[j].NextBillingTime)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.Address.String()]; !exists {
		return recur.ErrSubscriptionNotFound
	}
	cp := *sub
	s.subscriptions[sub.Address.String()] = &cp
	return nil
}

// Payment Store implementation
func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID.String()]; exists {
		return recur.ErrAlreadyExists
	}
	cp := *p
	s.payments[p.ID.String()] = &cp
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[paymentID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, recur.ErrNotFound
}

func (s *Store) ListPayments(_ context.Context, subscriptionAddr id.Address, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if p.SubscriptionAddress.Equal(subscriptionAddr) {
			if opts.Kind != "" && p.Kind != opts.Kind {
				continue
			}
			if opts.Status != "" && p.Status != opts.Status {
				continue
			}
			cp := *p
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaidAt.Before(result[j].PaidAt) })

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
