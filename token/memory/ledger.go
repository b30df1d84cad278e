// Package memory provides an in-memory token ledger implementing the
// token.Ledger and token.Delegator contracts. It exists for tests and
// for embedders running without a real settlement substrate; balances
// live in process memory and are lost on exit.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/recur"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/token"
	"github.com/xraph/recur/types"
)

type account struct {
	owner           id.ID
	balance         types.Money
	delegate        id.Address
	delegatedAmount types.Money
}

// Ledger is an in-memory token substrate. One delegate per account;
// approving a new delegate replaces the outstanding grant. Every
// method is atomic under a single mutex.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

var (
	_ token.Ledger    = (*Ledger)(nil)
	_ token.Delegator = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

// Open creates a new account for owner holding the given opening
// balance and returns its ID.
func (l *Ledger) Open(owner id.ID, balance types.Money) id.AccountID {
	l.mu.Lock()
	defer l.mu.Unlock()

	acctID := id.NewAccountID()
	l.accounts[acctID.String()] = &account{
		owner:   owner,
		balance: balance,
	}
	return acctID
}

// Mint credits amount to an existing account.
func (l *Ledger) Mint(acctID id.AccountID, amount types.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[acctID.String()]
	if !ok {
		return recur.ErrAccountNotFound
	}
	if !acct.balance.SameDenom(amount) {
		return recur.ErrAccountMismatch
	}

	acct.balance = acct.balance.Add(amount)
	return nil
}

// Account returns a snapshot of the account's state.
func (l *Ledger) Account(_ context.Context, acctID id.AccountID) (*token.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[acctID.String()]
	if !ok {
		return nil, recur.ErrAccountNotFound
	}

	return &token.Account{
		ID:              acctID,
		Owner:           acct.owner,
		Balance:         acct.balance,
		Delegate:        acct.delegate,
		DelegatedAmount: acct.delegatedAmount,
	}, nil
}

// Transfer moves amount from one account to another under the given
// authorization. It moves the full amount or nothing.
func (l *Ledger) Transfer(_ context.Context, from, to id.AccountID, amount types.Money, auth token.Authorization) error {
	if !amount.IsPositive() {
		return recur.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from.String()]
	if !ok {
		return recur.ErrAccountNotFound
	}
	dst, ok := l.accounts[to.String()]
	if !ok {
		return recur.ErrAccountNotFound
	}
	if !src.balance.SameDenom(amount) || !dst.balance.SameDenom(amount) {
		return recur.ErrAccountMismatch
	}

	// Authorization check before any balance check, so callers cannot
	// probe balances they have no claim on.
	switch {
	case auth.IsOwner():
		owner, _ := auth.Owner()
		if src.owner != owner {
			return recur.ErrUnauthorized
		}
	case auth.IsDelegate():
		delegate, _ := auth.Delegate()
		if src.delegate.IsNil() || !src.delegate.Equal(delegate) {
			return recur.ErrNotDelegate
		}
		if amount.GreaterThan(src.delegatedAmount) {
			return recur.ErrDelegationExceeded
		}
	default:
		return recur.ErrUnauthorized
	}

	if amount.GreaterThan(src.balance) {
		return recur.ErrInsufficientFunds
	}

	src.balance = src.balance.Subtract(amount)
	dst.balance = dst.balance.Add(amount)
	if auth.IsDelegate() {
		src.delegatedAmount = src.delegatedAmount.Subtract(amount)
	}
	return nil
}

// Approve installs delegate as the account's single delegate with the
// given spending allowance, replacing any prior grant.
func (l *Ledger) Approve(_ context.Context, acctID id.AccountID, owner id.ID, delegate id.Address, allowance types.Money) error {
	if delegate.IsNil() || allowance.IsNegative() {
		return recur.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[acctID.String()]
	if !ok {
		return recur.ErrAccountNotFound
	}
	if acct.owner != owner {
		return recur.ErrUnauthorized
	}
	if !acct.balance.SameDenom(allowance) {
		return recur.ErrAccountMismatch
	}

	acct.delegate = delegate
	acct.delegatedAmount = allowance
	return nil
}

// Revoke clears the account's delegation grant.
func (l *Ledger) Revoke(_ context.Context, acctID id.AccountID, owner id.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[acctID.String()]
	if !ok {
		return recur.ErrAccountNotFound
	}
	if acct.owner != owner {
		return recur.ErrUnauthorized
	}

	acct.delegate = id.NilAddress
	acct.delegatedAmount = types.Zero(acct.balance.Denom)
	return nil
}
