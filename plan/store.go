package plan

import (
	"context"

	"github.com/xraph/recur/id"
)

type Store interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, addr id.Address) (*Plan, error)
	List(ctx context.Context, merchant id.MerchantID, opts ListOpts) ([]*Plan, error)
	Archive(ctx context.Context, addr id.Address) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
