package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
)

var _ ledger.Ledger = (*Store)(nil)

// Transfer implements ledger.Ledger.
func (s *Store) Transfer(ctx context.Context, from, to string, amount uint64) error {
	return s.move(ctx, ledger.Movement{From: from, To: to, Amount: amount})
}

// TransferFrom implements ledger.Ledger.
func (s *Store) TransferFrom(ctx context.Context, spender, from, to string, amount uint64) error {
	return s.move(ctx, ledger.Movement{From: from, To: to, Amount: amount, Spender: spender})
}

func (s *Store) move(ctx context.Context, mv ledger.Movement) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := checkAmount(mv.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(mv.From) == "" || strings.TrimSpace(mv.To) == "" {
		return ledger.ErrInvalidAccount
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mv.Spender != "" && mv.Spender != mv.From {
		allowance, err := queryAmount(ctx, tx, "SELECT amount FROM allowances WHERE owner = ? AND spender = ?", mv.From, mv.Spender)
		if err != nil {
			return fmt.Errorf("read allowance: %w", err)
		}
		if allowance < mv.Amount {
			return ledger.ErrInsufficientAllowance
		}
		if err := setAllowance(ctx, tx, mv.From, mv.Spender, allowance-mv.Amount); err != nil {
			return err
		}
	}

	fromBalance, err := queryAmount(ctx, tx, "SELECT amount FROM balances WHERE account = ?", mv.From)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if fromBalance < mv.Amount {
		return ledger.ErrInsufficientBalance
	}
	if mv.From != mv.To {
		toBalance, err := queryAmount(ctx, tx, "SELECT amount FROM balances WHERE account = ?", mv.To)
		if err != nil {
			return fmt.Errorf("read balance: %w", err)
		}
		if toBalance > math.MaxInt64-mv.Amount {
			return fmt.Errorf("%w: balance of %s would overflow", ledger.ErrInvalidAmount, mv.To)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE balances SET amount = amount - ? WHERE account = ?", int64(mv.Amount), mv.From,
		); err != nil {
			return fmt.Errorf("debit %s: %w", mv.From, err)
		}
		if err := credit(ctx, tx, mv.To, mv.Amount); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Approve implements ledger.Ledger. A zero amount revokes the allowance.
func (s *Store) Approve(ctx context.Context, owner, spender string, amount uint64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(spender) == "" {
		return ledger.ErrInvalidAccount
	}
	if amount > math.MaxInt64 {
		return ledger.ErrInvalidAmount
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := setAllowance(ctx, tx, owner, spender, amount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Allowance implements ledger.Ledger.
func (s *Store) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	amount, err := queryAmount(ctx, s.sqlDB, "SELECT amount FROM allowances WHERE owner = ? AND spender = ?", owner, spender)
	if err != nil {
		return 0, fmt.Errorf("read allowance: %w", err)
	}
	return amount, nil
}

// BalanceOf implements ledger.Ledger.
func (s *Store) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	amount, err := queryAmount(ctx, s.sqlDB, "SELECT amount FROM balances WHERE account = ?", account)
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return amount, nil
}

// Mint credits new tokens to account. Only genesis loading mints.
func (s *Store) Mint(ctx context.Context, account string, amount uint64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if strings.TrimSpace(account) == "" {
		return ledger.ErrInvalidAccount
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	balance, err := queryAmount(ctx, tx, "SELECT amount FROM balances WHERE account = ?", account)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: balance of %s would overflow", ledger.ErrInvalidAmount, account)
	}
	if err := credit(ctx, tx, account, amount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TotalSupply sums every balance.
func (s *Store) TotalSupply(ctx context.Context) (uint64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var total int64
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COALESCE(SUM(amount), 0) FROM balances").Scan(&total); err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return uint64(total), nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryAmount(ctx context.Context, q queryer, query string, args ...any) (uint64, error) {
	var amount int64
	err := q.QueryRowContext(ctx, query, args...).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64(amount), nil
}

func setAllowance(ctx context.Context, tx *sql.Tx, owner, spender string, amount uint64) error {
	var err error
	if amount == 0 {
		_, err = tx.ExecContext(ctx, "DELETE FROM allowances WHERE owner = ? AND spender = ?", owner, spender)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO allowances (owner, spender, amount) VALUES (?, ?, ?) ON CONFLICT(owner, spender) DO UPDATE SET amount = excluded.amount",
			owner, spender, int64(amount),
		)
	}
	if err != nil {
		return fmt.Errorf("set allowance: %w", err)
	}
	return nil
}

func credit(ctx context.Context, tx *sql.Tx, account string, amount uint64) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO balances (account, amount) VALUES (?, ?) ON CONFLICT(account) DO UPDATE SET amount = amount + excluded.amount",
		account, int64(amount),
	); err != nil {
		return fmt.Errorf("credit %s: %w", account, err)
	}
	return nil
}

func checkAmount(amount uint64) error {
	if amount == 0 || amount > math.MaxInt64 {
		return ledger.ErrInvalidAmount
	}
	return nil
}
