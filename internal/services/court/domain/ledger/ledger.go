// Package ledger defines the fungible token ledger the court escrows
// through, and an in-memory implementation.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientBalance indicates the source account cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance indicates the spender's allowance cannot cover the amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrInvalidAmount indicates a zero amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidAccount indicates an empty account.
	ErrInvalidAccount = errors.New("account is required")
)

// Ledger moves tokens between accounts. Every operation conserves supply.
type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
	TransferFrom(ctx context.Context, spender, from, to string, amount uint64) error
	Approve(ctx context.Context, owner, spender string, amount uint64) error
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
	BalanceOf(ctx context.Context, account string) (uint64, error)
}

// Movement is one completed transfer.
type Movement struct {
	From    string
	To      string
	Amount  uint64
	Spender string
}
