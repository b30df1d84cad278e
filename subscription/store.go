package subscription

import (
	"context"
	"time"

	"github.com/xraph/recur/id"
)

type Store interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, addr id.Address) (*Subscription, error)
	List(ctx context.Context, subscriber id.SubscriberID, opts ListOpts) ([]*Subscription, error)
	// ListDue returns active subscriptions whose NextBillingTime is at
	// or before now, oldest due first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
