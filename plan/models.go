package plan

import (
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Plan is a merchant's standing billing offer: a fixed price pulled
// on a fixed cadence. The Address is derived from (Merchant, Key), so
// a merchant registers at most one plan per key and re-registration
// of the same tuple is a duplicate, not a new record. Merchant, Key,
// Price, and Frequency never change after creation; only Status does.
type Plan struct {
	types.Entity
	Address           id.Address        `json:"address"`
	Merchant          id.MerchantID     `json:"merchant"`
	Key               string            `json:"key"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Price             types.Money       `json:"price"`
	Frequency         time.Duration     `json:"frequency"`
	SettlementAccount id.AccountID      `json:"settlement_account"`
	Status            Status            `json:"status"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ValidTerms reports whether the billing terms are chargeable: a
// strictly positive price and a strictly positive frequency. Frequency
// has second resolution; sub-second remainders are rejected.
func (p *Plan) ValidTerms() bool {
	return p.Price.IsPositive() &&
		p.Frequency > 0 &&
		p.Frequency%time.Second == 0
}

// IsActive reports whether new subscriptions may be created.
func (p *Plan) IsActive() bool {
	return p.Status == StatusActive
}
