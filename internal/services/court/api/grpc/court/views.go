package court

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/juror"
	"github.com/louisbranch/decicourt/internal/services/court/domain/reputation"
)

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func eventView(evt event.Event) (*structpb.Struct, error) {
	payload := new(structpb.Struct)
	if len(evt.PayloadJSON) > 0 {
		if err := protojson.Unmarshal(evt.PayloadJSON, payload); err != nil {
			return nil, fmt.Errorf("decode event %d payload: %w", evt.Seq, err)
		}
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"seq":           structpb.NewStringValue(rpc.Amount(evt.Seq)),
		"type":          structpb.NewStringValue(string(evt.Type)),
		"timestamp":     structpb.NewStringValue(timestamp(evt.Timestamp)),
		"actor_type":    structpb.NewStringValue(string(evt.ActorType)),
		"actor_id":      structpb.NewStringValue(evt.ActorID),
		"request_id":    structpb.NewStringValue(evt.RequestID),
		"invocation_id": structpb.NewStringValue(evt.InvocationID),
		"entity_type":   structpb.NewStringValue(evt.EntityType),
		"entity_id":     structpb.NewStringValue(evt.EntityID),
		"hash":          structpb.NewStringValue(evt.ChainHash),
		"payload":       structpb.NewStructValue(payload),
	}}, nil
}

func stringList(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func caseView(c dispute.Case, now time.Time, appealWindow time.Duration) map[string]any {
	round := c.Round()
	view := map[string]any{
		"case_id":         rpc.Amount(c.ID),
		"plaintiff":       c.Plaintiff,
		"defendant":       c.Defendant,
		"evidence_ref":    c.EvidenceRef,
		"status":          c.Status.String(),
		"filing_fee":      rpc.Amount(c.FilingFee),
		"created_at":      timestamp(c.CreatedAt),
		"round":           float64(round.Number),
		"phase":           phaseName(c, round, now),
		"jurors":          stringList(round.Jurors),
		"commit_deadline": timestamp(round.CommitDeadline),
		"reveal_deadline": timestamp(round.RevealDeadline),
		"plaintiff_votes": float64(round.PlaintiffVotes),
		"defendant_votes": float64(round.DefendantVotes),
		"winning_side":    c.WinningSide.String(),
		"winner":          c.Winner,
		"resolved_at":     timestamp(c.ResolvedAt),
		"is_appealed":     c.IsAppealed,
		"appellant":       c.Appellant,
		"appeal_deposit":  rpc.Amount(c.AppealDeposit),
	}
	if c.Status == dispute.StatusResolved && !c.IsAppealed {
		view["appeal_deadline"] = timestamp(c.ResolvedAt.Add(appealWindow))
	}
	if c.Status == dispute.StatusAppealResolved {
		view["appeal_succeeded"] = c.AppealSucceeded
	}
	return view
}

// phaseName reports voting progress; settled cases report their status.
func phaseName(c dispute.Case, round dispute.Round, now time.Time) string {
	if c.Status != dispute.StatusVoting {
		return "settled"
	}
	switch round.Phase(now) {
	case dispute.PhaseCommit:
		return "commit"
	case dispute.PhaseReveal:
		return "reveal"
	default:
		return "awaiting_verdict"
	}
}

func ballotViews(round dispute.Round) []any {
	out := make([]any, 0, len(round.Jurors))
	for _, account := range round.Jurors {
		ballot := round.Ballots[account]
		view := map[string]any{
			"account":   account,
			"committed": ballot.Committed,
			"revealed":  ballot.Revealed,
		}
		if ballot.Revealed {
			view["vote"] = ballot.Vote.String()
		}
		out = append(out, view)
	}
	return out
}

func jurorView(state juror.State, record reputation.Record) map[string]any {
	view := map[string]any{
		"account":    state.Account,
		"stake":      rpc.Amount(state.Stake),
		"registered": state.Registered,
		"serving":    state.Serving,
		"reputation": reputationView(record),
	}
	if state.Serving {
		view["case_id"] = rpc.Amount(state.CaseID)
	}
	return view
}

func reputationView(record reputation.Record) map[string]any {
	return map[string]any{
		"score":             float64(record.Score),
		"correct_votes":     float64(record.CorrectVotes),
		"total_votes":       float64(record.TotalVotes),
		"consecutive_wrong": float64(record.ConsecutiveWrong),
		"accuracy_rate":     float64(record.AccuracyRate()),
		"novice":            record.Novice(),
	}
}
