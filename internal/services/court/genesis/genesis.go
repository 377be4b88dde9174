// Package genesis seeds the court token ledger from a YAML file on first start.
package genesis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the genesis document.
//
//	accounts:
//	  - account: alice
//	    balance: 10000
//	    escrow_allowance: 10000
type File struct {
	Accounts []Account `yaml:"accounts"`
}

// Account is one initial balance. EscrowAllowance pre-approves the court
// escrow account to pull from it.
type Account struct {
	Account         string `yaml:"account"`
	Balance         uint64 `yaml:"balance"`
	EscrowAllowance uint64 `yaml:"escrow_allowance"`
}

// Ledger is the subset of the token ledger genesis writes to.
type Ledger interface {
	Mint(ctx context.Context, account string, amount uint64) error
	Approve(ctx context.Context, owner, spender string, amount uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
}

// Load reads and validates the genesis file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read genesis: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a genesis document. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return File{}, fmt.Errorf("decode genesis: %w", err)
	}
	if err := file.Validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

// Validate checks accounts are named, unique and funded within range.
func (f File) Validate() error {
	if len(f.Accounts) == 0 {
		return errors.New("genesis has no accounts")
	}
	seen := make(map[string]struct{}, len(f.Accounts))
	var total uint64
	for i, acct := range f.Accounts {
		name := strings.TrimSpace(acct.Account)
		if name == "" {
			return fmt.Errorf("account %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("account %s: duplicate entry", name)
		}
		seen[name] = struct{}{}
		if acct.Balance == 0 {
			return fmt.Errorf("account %s: balance must be positive", name)
		}
		if acct.Balance > math.MaxInt64-total {
			return fmt.Errorf("account %s: total supply overflows", name)
		}
		total += acct.Balance
	}
	return nil
}

// TotalSupply sums the genesis balances.
func (f File) TotalSupply() uint64 {
	var total uint64
	for _, acct := range f.Accounts {
		total += acct.Balance
	}
	return total
}

// Apply mints the genesis balances into ledger when it holds no tokens yet.
// It reports whether anything was minted.
func Apply(ctx context.Context, ledger Ledger, escrow string, file File) (bool, error) {
	if ledger == nil {
		return false, errors.New("ledger is required")
	}
	supply, err := ledger.TotalSupply(ctx)
	if err != nil {
		return false, fmt.Errorf("read supply: %w", err)
	}
	if supply > 0 {
		return false, nil
	}
	accounts := append([]Account(nil), file.Accounts...)
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Account < accounts[j].Account })
	for _, acct := range accounts {
		name := strings.TrimSpace(acct.Account)
		if err := ledger.Mint(ctx, name, acct.Balance); err != nil {
			return false, fmt.Errorf("mint %s: %w", name, err)
		}
		if acct.EscrowAllowance > 0 {
			if err := ledger.Approve(ctx, name, escrow, acct.EscrowAllowance); err != nil {
				return false, fmt.Errorf("approve %s: %w", name, err)
			}
		}
	}
	return true, nil
}
