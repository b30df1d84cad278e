package payment

import (
	"context"

	"github.com/xraph/recur/id"
)

type Store interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, paymentID id.PaymentID) (*Payment, error)
	List(ctx context.Context, subscription id.Address, opts ListOpts) ([]*Payment, error)
}

type ListOpts struct {
	Kind   Kind
	Status Status
	Limit  int
	Offset int
}
