package subscription

import (
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusCanceled Status = "canceled"
)

// Subscription is one subscriber's enrollment in one plan. The Address
// is derived from (Subscriber, PlanAddress): a subscriber holds at most
// one record per plan, and the record is never physically deleted, so
// the same tuple cannot be enrolled twice.
//
// NextBillingTime is anchored to the schedule, not the wall clock: a
// successful charge advances it by exactly one plan frequency. Charges
// while paused or canceled are rejected, and resuming does not move
// NextBillingTime, so a lapsed subscription is charged immediately on
// resume and stays on its original cadence.
type Subscription struct {
	types.Entity
	Address         id.Address       `json:"address"`
	Subscriber      id.SubscriberID  `json:"subscriber"`
	PlanAddress     id.Address       `json:"plan_address"`
	FundingAccount  id.AccountID     `json:"funding_account"`
	Status          Status           `json:"status"`
	StartTime       time.Time        `json:"start_time"`
	NextBillingTime time.Time        `json:"next_billing_time"`
	PausedAt        *time.Time       `json:"paused_at,omitempty"`
	CanceledAt      *time.Time       `json:"canceled_at,omitempty"`
	ResumedAt       *time.Time       `json:"resumed_at,omitempty"`
}

// IsActive reports whether charges against this subscription are
// currently permitted.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Due reports whether a charge is payable at the given instant.
func (s *Subscription) Due(now time.Time) bool {
	return !now.Before(s.NextBillingTime)
}

// Advance moves NextBillingTime forward by one billing period. The
// increment is fixed, never recomputed from "now", so late charges do
// not drift the schedule.
func (s *Subscription) Advance(frequency time.Duration) {
	s.NextBillingTime = s.NextBillingTime.Add(frequency)
}
