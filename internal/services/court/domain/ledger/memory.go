package ledger

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-memory Ledger.
type Memory struct {
	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[allowanceKey]uint64
	hook       func(context.Context, Movement)
}

type allowanceKey struct {
	owner   string
	spender string
}

// NewMemory creates an empty ledger.
func NewMemory() *Memory {
	return &Memory{
		balances:   make(map[string]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

// OnTransfer registers fn to run after every completed transfer, outside the
// ledger lock. It lets tests act as a token contract that calls back into its
// caller.
func (m *Memory) OnTransfer(fn func(context.Context, Movement)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Seed credits amount to account. It is the only way supply enters the ledger.
func (m *Memory) Seed(ctx context.Context, account string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return ErrInvalidAccount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] += amount
	return nil
}

// Transfer implements Ledger.
func (m *Memory) Transfer(ctx context.Context, from, to string, amount uint64) error {
	return m.move(ctx, Movement{From: from, To: to, Amount: amount})
}

// TransferFrom implements Ledger.
func (m *Memory) TransferFrom(ctx context.Context, spender, from, to string, amount uint64) error {
	return m.move(ctx, Movement{From: from, To: to, Amount: amount, Spender: spender})
}

func (m *Memory) move(ctx context.Context, mv Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mv.Amount == 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(mv.From) == "" || strings.TrimSpace(mv.To) == "" {
		return ErrInvalidAccount
	}

	m.mu.Lock()
	if mv.Spender != "" && mv.Spender != mv.From {
		key := allowanceKey{owner: mv.From, spender: mv.Spender}
		if m.allowances[key] < mv.Amount {
			m.mu.Unlock()
			return ErrInsufficientAllowance
		}
		if m.balances[mv.From] < mv.Amount {
			m.mu.Unlock()
			return ErrInsufficientBalance
		}
		m.allowances[key] -= mv.Amount
	} else if m.balances[mv.From] < mv.Amount {
		m.mu.Unlock()
		return ErrInsufficientBalance
	}
	m.balances[mv.From] -= mv.Amount
	m.balances[mv.To] += mv.Amount
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, mv)
	}
	return nil
}

// Approve implements Ledger.
func (m *Memory) Approve(ctx context.Context, owner, spender string, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(spender) == "" {
		return ErrInvalidAccount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := allowanceKey{owner: owner, spender: spender}
	if amount == 0 {
		delete(m.allowances, key)
		return nil
	}
	m.allowances[key] = amount
	return nil
}

// Allowance implements Ledger.
func (m *Memory) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allowances[allowanceKey{owner: owner, spender: spender}], nil
}

// BalanceOf implements Ledger.
func (m *Memory) BalanceOf(ctx context.Context, account string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account], nil
}

// Balances returns a copy of every non-zero balance.
func (m *Memory) Balances() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.balances))
	for account, balance := range m.balances {
		if balance > 0 {
			out[account] = balance
		}
	}
	return out
}

// TotalSupply returns the sum of all balances.
func (m *Memory) TotalSupply() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, balance := range m.balances {
		total += balance
	}
	return total
}
