package court

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/selection"
)

// Decider turns court commands into events against a World snapshot.
type Decider struct {
	Params    Params
	Selection selection.Source
}

// Decide returns the decision for cmd.
//
// Every court command is sent by an account: the juror, the filing party or
// the caller asking for a verdict. System actors are not accepted.
func (d Decider) Decide(w World, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	actor := strings.TrimSpace(cmd.ActorID)
	if cmd.ActorType != command.ActorTypeAccount || actor == "" {
		return reject(rejectionCodeActorRequired, "Caller account is required")
	}
	at := now().UTC()
	switch cmd.Type {
	case CommandTypeRegisterJuror:
		return d.decideRegister(w, cmd, actor, at)
	case CommandTypeUnregisterJuror:
		return d.decideUnregister(w, cmd, actor, at)
	case CommandTypeCreateCase:
		return d.decideCreateCase(w, cmd, actor, at)
	case CommandTypeCommitVote:
		return d.decideCommit(w, cmd, actor, at)
	case CommandTypeRevealVote:
		return d.decideReveal(w, cmd, actor, at)
	case CommandTypeExecuteVerdict:
		return d.decideVerdict(w, cmd, at)
	case CommandTypeAppeal:
		return d.decideAppeal(w, cmd, actor, at)
	default:
		return reject(rejectionCodeCommandUnsupported, "command type is not supported")
	}
}

func (d Decider) source() selection.Source {
	if d.Selection == nil {
		return selection.Crypto{}
	}
	return d.Selection
}

// decodePayload reads the command payload. Commands that came through the
// command registry are already valid; direct callers may not be.
func decodePayload(cmd command.Command, target any) error {
	raw := cmd.PayloadJSON
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	return json.Unmarshal(raw, target)
}

func rejectPayload(err error) command.Decision {
	return reject(rejectionCodePayloadInvalid, "Invalid command payload: "+err.Error())
}

func reject(code, message string) command.Decision {
	return command.Reject(command.Rejection{Code: code, Message: message})
}

func caseEvent(cmd command.Command, eventType event.Type, caseID uint64, payload any, at time.Time) event.Event {
	payloadJSON, _ := json.Marshal(payload)
	return command.NewEvent(cmd, eventType, EntityTypeCase, strconv.FormatUint(caseID, 10), payloadJSON, at)
}

func jurorEvent(cmd command.Command, eventType event.Type, account string, payload any, at time.Time) event.Event {
	payloadJSON, _ := json.Marshal(payload)
	return command.NewEvent(cmd, eventType, EntityTypeJuror, account, payloadJSON, at)
}

// candidates returns the pool without the given accounts.
func candidates(w World, exclude ...string) []string {
	members := w.Pool.Members()
	out := members[:0]
	for _, account := range members {
		skip := false
		for _, excluded := range exclude {
			if account == excluded {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, account)
		}
	}
	return out
}
