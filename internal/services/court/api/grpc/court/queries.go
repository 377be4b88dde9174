package court

import (
	"context"
	"errors"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

// GetCase returns a case and its current round.
func (s *Service) GetCase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	var (
		c     dispute.Case
		found bool
	)
	if err := s.view(ctx, func(w courtdomain.World) {
		c, found = w.Case(caseID)
		if found {
			c = c.Clone()
		}
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(caseID)
	}
	return respond(map[string]any{"case": caseView(c, s.now(), s.params.AppealDuration)})
}

// GetCaseJurors returns the current round's jurors and ballot progress.
// Commitments and unrevealed votes stay hidden.
func (s *Service) GetCaseJurors(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	var (
		round dispute.Round
		found bool
	)
	if err := s.view(ctx, func(w courtdomain.World) {
		var c dispute.Case
		c, found = w.Case(caseID)
		if found {
			round = c.Round().Clone()
		}
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(caseID)
	}
	return respond(map[string]any{
		"case_id": rpc.Amount(caseID),
		"round":   float64(round.Number),
		"jurors":  ballotViews(round),
	})
}

// GetJuror returns the registration state of account, or of the caller when
// account is omitted.
func (s *Service) GetJuror(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, err := s.account(ctx, in)
	if err != nil {
		return nil, err
	}
	var view map[string]any
	if err := s.view(ctx, func(w courtdomain.World) {
		state, ok := w.Juror(account)
		if !ok {
			state.Account = account
		}
		view = jurorView(state, w.Reputation(account))
	}); err != nil {
		return nil, err
	}
	return respond(map[string]any{"juror": view})
}

// GetJurorReputation returns the reputation of account. Accounts without
// history report the initial score.
func (s *Service) GetJurorReputation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, err := s.account(ctx, in)
	if err != nil {
		return nil, err
	}
	var view map[string]any
	if err := s.view(ctx, func(w courtdomain.World) {
		view = reputationView(w.Reputation(account))
	}); err != nil {
		return nil, err
	}
	view["account"] = account
	return respond(map[string]any{"reputation": view})
}

// GetParams returns the court's parameters and pool size.
func (s *Service) GetParams(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	var poolSize, nextCaseID uint64
	if err := s.view(ctx, func(w courtdomain.World) {
		poolSize = uint64(w.Pool.Len())
		nextCaseID = w.NextCaseID
	}); err != nil {
		return nil, err
	}
	p := s.params
	return respond(map[string]any{
		"court_id":                  s.courtID,
		"escrow_account":            p.EscrowAccount,
		"filing_fee":                rpc.Amount(p.FilingFee),
		"juror_stake":               rpc.Amount(p.JurorStake),
		"jury_size":                 float64(p.JurySize),
		"appeal_jury_size":          float64(p.AppealJurySize),
		"commit_duration":           p.CommitDuration.String(),
		"reveal_duration":           p.RevealDuration.String(),
		"appeal_duration":           p.AppealDuration.String(),
		"penalty_rate":              rpc.Amount(p.PenaltyRate),
		"appeal_deposit_multiplier": rpc.Amount(p.AppealDepositMultiplier),
		"appeal_deposit":            rpc.Amount(p.AppealDeposit()),
		"pool_size":                 rpc.Amount(poolSize),
		"next_case_id":              rpc.Amount(nextCaseID),
	})
}

// account reads the optional account field, defaulting to the caller.
func (s *Service) account(ctx context.Context, in *structpb.Struct) (string, error) {
	if account := rpc.String(in, "account"); account != "" {
		return account, nil
	}
	account, err := identity.Require(ctx)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Code == apperrors.CodeActorRequired {
			return "", apperrors.WithMetadata(apperrors.CodeInvalidArgument, "account is required", map[string]string{"field": "account"})
		}
		return "", err
	}
	return account, nil
}
