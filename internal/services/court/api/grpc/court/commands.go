package court

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	grpcmeta "github.com/louisbranch/decicourt/internal/services/court/api/grpc/metadata"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/identity"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/engine"
)

// RegisterAsJuror stakes the juror deposit for the caller.
func (s *Service) RegisterAsJuror(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.execute(ctx, courtdomain.CommandTypeRegisterJuror, nil)
}

// UnregisterAsJuror refunds the caller's remaining stake.
func (s *Service) UnregisterAsJuror(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.execute(ctx, courtdomain.CommandTypeUnregisterJuror, nil)
}

// CreateCase files a case against defendant and draws its jury.
func (s *Service) CreateCase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	defendant, err := rpc.RequiredString(in, "defendant")
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, courtdomain.CommandTypeCreateCase, courtdomain.CreateCasePayload{
		Defendant:   defendant,
		EvidenceRef: rpc.String(in, "evidence_ref"),
	})
}

// CommitVote seals the caller's vote on a case.
func (s *Service) CommitVote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	commitment, err := rpc.RequiredString(in, "commitment")
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, courtdomain.CommandTypeCommitVote, courtdomain.CommitVotePayload{
		CaseID:     caseID,
		Commitment: commitment,
	})
}

// RevealVote opens the caller's sealed vote. vote accepts 1, 2,
// "plaintiff" or "defendant".
func (s *Service) RevealVote(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	salt, err := rpc.RequiredString(in, "salt")
	if err != nil {
		return nil, err
	}
	vote, err := parseVote(in)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, courtdomain.CommandTypeRevealVote, courtdomain.RevealVotePayload{
		CaseID: caseID,
		Vote:   vote,
		Salt:   salt,
	})
}

// ExecuteVerdict tallies a case once its reveal phase has ended.
func (s *Service) ExecuteVerdict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, courtdomain.CommandTypeExecuteVerdict, courtdomain.CaseTargetPayload{CaseID: caseID})
}

// Appeal escalates a resolved case to a larger jury.
func (s *Service) Appeal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caseID, err := rpc.RequiredUint(in, "case_id")
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, courtdomain.CommandTypeAppeal, courtdomain.CaseTargetPayload{CaseID: caseID})
}

func parseVote(in *structpb.Struct) (dispute.Vote, error) {
	invalid := apperrors.New(apperrors.CodeVoteInvalid, "Invalid vote option")
	value, ok := in.GetFields()["vote"]
	if !ok {
		return dispute.VoteNone, invalid
	}
	if _, isNumber := value.GetKind().(*structpb.Value_NumberValue); isNumber {
		n, err := rpc.Uint(in, "vote")
		if err != nil || n > 255 || !dispute.Vote(n).Valid() {
			return dispute.VoteNone, invalid
		}
		return dispute.Vote(n), nil
	}
	vote, err := dispute.ParseVote(value.GetStringValue())
	if err != nil {
		return dispute.VoteNone, invalid
	}
	return vote, nil
}

// execute submits a command as the caller and renders the stored events.
func (s *Service) execute(ctx context.Context, cmdType command.Type, payload any) (*structpb.Struct, error) {
	actor, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	var payloadJSON []byte
	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", cmdType, err)
		}
	}
	cmd := command.Command{
		CourtID:      s.courtID,
		Type:         cmdType,
		ActorType:    command.ActorTypeAccount,
		ActorID:      actor,
		RequestID:    grpcmeta.RequestIDFromContext(ctx),
		InvocationID: grpcmeta.InvocationIDFromContext(ctx),
		PayloadJSON:  payloadJSON,
	}
	result, err := s.processor.Submit(ctx, cmd)
	if err != nil {
		return nil, processorError(err)
	}
	if result.Rejected() {
		return nil, rejectionError(cmd, result.Decision.Rejections[0])
	}
	return acceptedResponse(result)
}

func acceptedResponse(result engine.Result) (*structpb.Struct, error) {
	events := result.Decision.Events
	views := make([]*structpb.Value, 0, len(events))
	for _, evt := range events {
		view, err := eventView(evt)
		if err != nil {
			return nil, err
		}
		views = append(views, structpb.NewStructValue(view))
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"events": structpb.NewListValue(&structpb.ListValue{Values: views}),
	}}
	if len(events) > 0 {
		out.Fields["last_seq"] = structpb.NewStringValue(rpc.Amount(events[len(events)-1].Seq))
		if events[0].Type == courtdomain.EventTypeCaseCreated {
			var created courtdomain.CaseCreatedPayload
			if err := json.Unmarshal(events[0].PayloadJSON, &created); err == nil {
				out.Fields["case_id"] = structpb.NewStringValue(rpc.Amount(created.CaseID))
			}
		}
	}
	return out, nil
}
