package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/recur"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/token"
	"github.com/xraph/recur/types"
)

func TestOpenAndAccount(t *testing.T) {
	ctx := context.Background()
	l := New()

	owner := id.NewSubscriberID()
	acctID := l.Open(owner, types.USDC(1000))

	acct, err := l.Account(ctx, acctID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if acct.Owner != owner {
		t.Errorf("owner: got %s, want %s", acct.Owner, owner)
	}
	if !acct.Balance.Equal(types.USDC(1000)) {
		t.Errorf("balance: got %v, want %v", acct.Balance, types.USDC(1000))
	}
	if acct.HasDelegate() {
		t.Error("new account should have no delegate")
	}

	_, err = l.Account(ctx, id.NewAccountID())
	if !errors.Is(err, recur.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMint(t *testing.T) {
	l := New()
	acctID := l.Open(id.NewSubscriberID(), types.USDC(100))

	if err := l.Mint(acctID, types.USDC(50)); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	acct, _ := l.Account(context.Background(), acctID)
	if !acct.Balance.Equal(types.USDC(150)) {
		t.Errorf("balance: got %v, want %v", acct.Balance, types.USDC(150))
	}

	if err := l.Mint(acctID, types.SOL(50)); !errors.Is(err, recur.ErrAccountMismatch) {
		t.Errorf("expected ErrAccountMismatch for wrong denom, got %v", err)
	}
}

func TestOwnerTransfer(t *testing.T) {
	ctx := context.Background()
	l := New()

	owner := id.NewSubscriberID()
	from := l.Open(owner, types.USDC(500))
	to := l.Open(id.NewMerchantID(), types.USDC(0))

	tests := []struct {
		name    string
		amount  types.Money
		auth    token.Authorization
		wantErr error
	}{
		{"wrong owner", types.USDC(100), token.AsOwner(id.NewSubscriberID()), recur.ErrUnauthorized},
		{"no authorization", types.USDC(100), token.Authorization{}, recur.ErrUnauthorized},
		{"zero amount", types.USDC(0), token.AsOwner(owner), recur.ErrInvalidInput},
		{"denom mismatch", types.SOL(100), token.AsOwner(owner), recur.ErrAccountMismatch},
		{"insufficient funds", types.USDC(501), token.AsOwner(owner), recur.ErrInsufficientFunds},
		{"success", types.USDC(100), token.AsOwner(owner), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Transfer(ctx, from, to, tt.amount, tt.auth)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer: got %v, want %v", err, tt.wantErr)
			}
		})
	}

	src, _ := l.Account(ctx, from)
	dst, _ := l.Account(ctx, to)
	if !src.Balance.Equal(types.USDC(400)) {
		t.Errorf("source balance: got %v, want %v", src.Balance, types.USDC(400))
	}
	if !dst.Balance.Equal(types.USDC(100)) {
		t.Errorf("destination balance: got %v, want %v", dst.Balance, types.USDC(100))
	}
}

func TestDelegateTransfer(t *testing.T) {
	ctx := context.Background()
	l := New()

	owner := id.NewSubscriberID()
	from := l.Open(owner, types.USDC(1000))
	to := l.Open(id.NewMerchantID(), types.USDC(0))
	delegate := id.SubscriptionAddress(owner, id.PlanAddress(id.NewMerchantID(), "pro"))

	// Not yet approved.
	err := l.Transfer(ctx, from, to, types.USDC(100), token.AsDelegate(delegate))
	if !errors.Is(err, recur.ErrNotDelegate) {
		t.Fatalf("expected ErrNotDelegate before approval, got %v", err)
	}

	if err := l.Approve(ctx, from, owner, delegate, types.USDC(250)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	// Within allowance.
	if err := l.Transfer(ctx, from, to, types.USDC(100), token.AsDelegate(delegate)); err != nil {
		t.Fatalf("delegated transfer failed: %v", err)
	}
	acct, _ := l.Account(ctx, from)
	if !acct.DelegatedAmount.Equal(types.USDC(150)) {
		t.Errorf("allowance after transfer: got %v, want %v", acct.DelegatedAmount, types.USDC(150))
	}

	// Exceeding remaining allowance.
	err = l.Transfer(ctx, from, to, types.USDC(151), token.AsDelegate(delegate))
	if !errors.Is(err, recur.ErrDelegationExceeded) {
		t.Errorf("expected ErrDelegationExceeded, got %v", err)
	}

	// A different delegate cannot draw on the grant.
	other := id.SubscriptionAddress(id.NewSubscriberID(), id.PlanAddress(id.NewMerchantID(), "pro"))
	err = l.Transfer(ctx, from, to, types.USDC(50), token.AsDelegate(other))
	if !errors.Is(err, recur.ErrNotDelegate) {
		t.Errorf("expected ErrNotDelegate for other delegate, got %v", err)
	}
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	l := New()

	owner := id.NewSubscriberID()
	acctID := l.Open(owner, types.USDC(1000))
	delegate := id.SubscriptionAddress(owner, id.PlanAddress(id.NewMerchantID(), "pro"))

	tests := []struct {
		name      string
		owner     id.ID
		delegate  id.Address
		allowance types.Money
		wantErr   error
	}{
		{"wrong owner", id.NewSubscriberID(), delegate, types.USDC(100), recur.ErrUnauthorized},
		{"nil delegate", owner, id.NilAddress, types.USDC(100), recur.ErrInvalidInput},
		{"negative allowance", owner, delegate, types.USDC(-1), recur.ErrInvalidInput},
		{"denom mismatch", owner, delegate, types.SOL(100), recur.ErrAccountMismatch},
		{"success", owner, delegate, types.USDC(100), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Approve(ctx, acctID, tt.owner, tt.delegate, tt.allowance)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Approve: got %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Re-approving replaces the grant rather than stacking.
	if err := l.Approve(ctx, acctID, owner, delegate, types.USDC(42)); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	acct, _ := l.Account(ctx, acctID)
	if !acct.DelegatedAmount.Equal(types.USDC(42)) {
		t.Errorf("allowance: got %v, want %v", acct.DelegatedAmount, types.USDC(42))
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	l := New()

	owner := id.NewSubscriberID()
	from := l.Open(owner, types.USDC(1000))
	to := l.Open(id.NewMerchantID(), types.USDC(0))
	delegate := id.SubscriptionAddress(owner, id.PlanAddress(id.NewMerchantID(), "pro"))

	if err := l.Approve(ctx, from, owner, delegate, types.USDC(500)); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if err := l.Revoke(ctx, from, id.NewSubscriberID()); !errors.Is(err, recur.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for wrong owner, got %v", err)
	}
	if err := l.Revoke(ctx, from, owner); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	acct, _ := l.Account(ctx, from)
	if acct.HasDelegate() {
		t.Error("delegate should be cleared after revoke")
	}

	err := l.Transfer(ctx, from, to, types.USDC(100), token.AsDelegate(delegate))
	if !errors.Is(err, recur.ErrNotDelegate) {
		t.Errorf("expected ErrNotDelegate after revoke, got %v", err)
	}
}
