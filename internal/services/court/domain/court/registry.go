package court

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

// RegisterCommands registers court command definitions.
func RegisterCommands(registry *command.Registry) error {
	if registry == nil {
		return errors.New("command registry is required")
	}
	definitions := []command.Definition{
		{Type: CommandTypeRegisterJuror},
		{Type: CommandTypeUnregisterJuror},
		{Type: CommandTypeCreateCase, ValidatePayload: decodeAs[CreateCasePayload]},
		{Type: CommandTypeCommitVote, ValidatePayload: requireCaseID[CommitVotePayload](func(p CommitVotePayload) uint64 { return p.CaseID })},
		{Type: CommandTypeRevealVote, ValidatePayload: requireCaseID[RevealVotePayload](func(p RevealVotePayload) uint64 { return p.CaseID })},
		{Type: CommandTypeExecuteVerdict, ValidatePayload: requireCaseID[CaseTargetPayload](func(p CaseTargetPayload) uint64 { return p.CaseID })},
		{Type: CommandTypeAppeal, ValidatePayload: requireCaseID[CaseTargetPayload](func(p CaseTargetPayload) uint64 { return p.CaseID })},
	}
	for _, definition := range definitions {
		if err := registry.Register(definition); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEvents registers court event definitions.
func RegisterEvents(registry *event.Registry) error {
	if registry == nil {
		return errors.New("event registry is required")
	}
	definitions := []event.Definition{
		{Type: EventTypeJurorRegistered, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[JurorRegisteredPayload]},
		{Type: EventTypeJurorUnregistered, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[JurorUnregisteredPayload]},
		{Type: EventTypeCaseCreated, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[CaseCreatedPayload]},
		{Type: EventTypeVoteCommitted, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[VoteCommittedPayload]},
		{Type: EventTypeVoteRevealed, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[VoteRevealedPayload]},
		{Type: EventTypeReputationUpdated, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[ReputationUpdatedPayload]},
		{Type: EventTypeJurorPenalized, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[JurorPenalizedPayload]},
		{Type: EventTypeJurorRewarded, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[JurorRewardedPayload]},
		{Type: EventTypeCasePayout, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: validatePayout},
		{Type: EventTypeCaseResolved, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[CaseResolvedPayload]},
		{Type: EventTypeAppealInitiated, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[AppealInitiatedPayload]},
		{Type: EventTypeAppealResolved, Addressing: event.AddressingPolicyEntityTarget, ValidatePayload: decodeAs[AppealResolvedPayload]},
	}
	for _, definition := range definitions {
		if err := registry.Register(definition); err != nil {
			return err
		}
	}
	return nil
}

func decodeAs[T any](raw json.RawMessage) error {
	var payload T
	return json.Unmarshal(raw, &payload)
}

func requireCaseID[T any](caseID func(T) uint64) command.PayloadValidator {
	return func(raw json.RawMessage) error {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			return err
		}
		if caseID(payload) == 0 {
			return errors.New("case_id is required")
		}
		return nil
	}
}

func validatePayout(raw json.RawMessage) error {
	var payload CasePayoutPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	switch payload.Reason {
	case PayoutReasonWinnerShare, PayoutReasonDepositRefund:
		return nil
	default:
		return fmt.Errorf("unknown payout reason %q", payload.Reason)
	}
}
