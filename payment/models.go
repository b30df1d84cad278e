package payment

import (
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

type Kind string

const (
	// KindInitial is the owner-authorized first charge taken at
	// subscribe time.
	KindInitial Kind = "initial"
	// KindRecurring is a delegated charge taken on the billing cadence.
	KindRecurring Kind = "recurring"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Payment is the audit record of one charge attempt. Failed attempts
// are recorded too; the subscription itself carries no failure state,
// so the payment log is the only trace of a rejected charge.
type Payment struct {
	types.Entity
	ID                  id.PaymentID `json:"id"`
	SubscriptionAddress id.Address   `json:"subscription_address"`
	Amount              types.Money  `json:"amount"`
	Kind                Kind         `json:"kind"`
	Status              Status       `json:"status"`
	Reason              string       `json:"reason,omitempty"`
	PaidAt              time.Time    `json:"paid_at"`
}
