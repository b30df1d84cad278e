// Package token defines the contracts Recur expects from the value
// transfer substrate: an account-based ledger and a single-delegate
// approval primitive. The billing engine never holds balances itself;
// it drives these interfaces and treats every call as atomic.
package token

import (
	"context"
	"fmt"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

// Account is a snapshot of one token account. Balance and the
// delegated allowance share the account's denomination. An account
// carries at most one delegation; approving a new delegate replaces
// the previous grant.
type Account struct {
	ID              id.AccountID `json:"id"`
	Owner           id.ID        `json:"owner"`
	Balance         types.Money  `json:"balance"`
	Delegate        id.Address   `json:"delegate,omitempty"`
	DelegatedAmount types.Money  `json:"delegated_amount,omitempty"`
}

// Denom returns the account's denomination.
func (a *Account) Denom() string { return a.Balance.Denom }

// OwnedBy reports whether the account belongs to the given principal.
func (a *Account) OwnedBy(owner id.ID) bool { return a.Owner == owner }

// HasDelegate reports whether a delegation grant is outstanding.
func (a *Account) HasDelegate() bool { return !a.Delegate.IsNil() }

// Authorization names who is authorizing a transfer: the account owner
// or a delegate drawing on an outstanding grant. Exactly one of the
// two is set.
type Authorization struct {
	owner    id.ID
	delegate id.Address
}

// AsOwner authorizes as the account owner.
func AsOwner(owner id.ID) Authorization {
	return Authorization{owner: owner}
}

// AsDelegate authorizes as the account's delegate.
func AsDelegate(delegate id.Address) Authorization {
	return Authorization{delegate: delegate}
}

// IsOwner reports whether this is an owner authorization.
func (a Authorization) IsOwner() bool { return !a.owner.IsNil() }

// IsDelegate reports whether this is a delegate authorization.
func (a Authorization) IsDelegate() bool { return !a.delegate.IsNil() }

// Owner returns the authorizing owner, if any.
func (a Authorization) Owner() (id.ID, bool) { return a.owner, !a.owner.IsNil() }

// Delegate returns the authorizing delegate, if any.
func (a Authorization) Delegate() (id.Address, bool) { return a.delegate, !a.delegate.IsNil() }

func (a Authorization) String() string {
	switch {
	case a.IsOwner():
		return fmt.Sprintf("owner:%s", a.owner)
	case a.IsDelegate():
		return fmt.Sprintf("delegate:%s", a.delegate)
	default:
		return "none"
	}
}

// Ledger is the value transfer substrate. Transfer either moves the
// full amount and returns nil or moves nothing and returns an error;
// a delegate-authorized transfer also deducts from the remaining
// allowance.
type Ledger interface {
	Account(ctx context.Context, account id.AccountID) (*Account, error)
	Transfer(ctx context.Context, from, to id.AccountID, amount types.Money, auth Authorization) error
}

// Delegator is the delegation primitive. Approve installs delegate as
// the account's single delegate with the given spending allowance,
// replacing any prior grant; Revoke clears it. Both act on behalf of
// owner and fail if owner does not hold the account.
type Delegator interface {
	Approve(ctx context.Context, account id.AccountID, owner id.ID, delegate id.Address, allowance types.Money) error
	Revoke(ctx context.Context, account id.AccountID, owner id.ID) error
}
