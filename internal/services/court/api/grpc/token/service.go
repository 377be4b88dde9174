// Package token serves decicourt.token.v1.TokenService, the account-facing
// side of the ledger the court escrows through.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "decicourt.token.v1.TokenService"

// Service implements the token API.
type Service struct {
	ledger ledger.Ledger
	escrow string
}

// NewService returns a token service over l. The escrow account can be read
// but never acts as a caller.
func NewService(l ledger.Ledger, escrow string) (*Service, error) {
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	escrow = strings.TrimSpace(escrow)
	if escrow == "" {
		return nil, errors.New("escrow account is required")
	}
	return &Service{ledger: l, escrow: escrow}, nil
}

// Register adds the service to server.
func Register(server grpc.ServiceRegistrar, s *Service) {
	desc := s.Desc()
	server.RegisterService(&desc, s)
}

// Desc describes every token method.
func (s *Service) Desc() grpc.ServiceDesc {
	return rpc.Service(ServiceName, map[string]rpc.Method{
		"Approve":   s.Approve,
		"Allowance": s.Allowance,
		"BalanceOf": s.BalanceOf,
		"Transfer":  s.Transfer,
	})
}

// Approve sets the allowance spender may pull from the caller. spender
// defaults to the court escrow.
func (s *Service) Approve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	spender := rpc.String(in, "spender")
	if spender == "" {
		spender = s.escrow
	}
	amount, err := rpc.Uint(in, "amount")
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Approve(ctx, owner, spender, amount); err != nil {
		return nil, ledgerError(err)
	}
	return rpc.Response(map[string]any{
		"owner":     owner,
		"spender":   spender,
		"allowance": rpc.Amount(amount),
	})
}

// Allowance returns what spender may still pull from owner. owner defaults
// to the caller and spender to the court escrow.
func (s *Service) Allowance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	owner := rpc.String(in, "owner")
	if owner == "" {
		var err error
		if owner, err = identity.Require(ctx); err != nil {
			return nil, err
		}
	}
	spender := rpc.String(in, "spender")
	if spender == "" {
		spender = s.escrow
	}
	amount, err := s.ledger.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, ledgerError(err)
	}
	return rpc.Response(map[string]any{
		"owner":     owner,
		"spender":   spender,
		"allowance": rpc.Amount(amount),
	})
}

// BalanceOf returns the balance of account, defaulting to the caller.
func (s *Service) BalanceOf(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account := rpc.String(in, "account")
	if account == "" {
		var err error
		if account, err = identity.Require(ctx); err != nil {
			return nil, err
		}
	}
	balance, err := s.ledger.BalanceOf(ctx, account)
	if err != nil {
		return nil, ledgerError(err)
	}
	return rpc.Response(map[string]any{
		"account": account,
		"balance": rpc.Amount(balance),
	})
}

// Transfer moves amount from the caller to to.
func (s *Service) Transfer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	from, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	to, err := rpc.RequiredString(in, "to")
	if err != nil {
		return nil, err
	}
	amount, err := rpc.RequiredUint(in, "amount")
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Transfer(ctx, from, to, amount); err != nil {
		return nil, ledgerError(err)
	}
	return rpc.Response(map[string]any{
		"from":   from,
		"to":     to,
		"amount": rpc.Amount(amount),
	})
}

func (s *Service) caller(ctx context.Context) (string, error) {
	account, err := identity.Require(ctx)
	if err != nil {
		return "", err
	}
	if account == s.escrow {
		return "", apperrors.New(apperrors.CodeJurorReservedAccount, "Account is reserved by the court")
	}
	return account, nil
}

func ledgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return apperrors.Wrap(apperrors.CodeLedgerInsufficientFunds, "Insufficient balance", err)
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return apperrors.Wrap(apperrors.CodeLedgerInsufficientAllow, "Insufficient allowance", err)
	case errors.Is(err, ledger.ErrInvalidAmount):
		return apperrors.Wrap(apperrors.CodeLedgerInvalidAmount, "Invalid amount", err)
	case errors.Is(err, ledger.ErrInvalidAccount):
		return apperrors.Wrap(apperrors.CodeLedgerInvalidAccount, "Invalid account", err)
	}
	return fmt.Errorf("ledger: %w", err)
}
