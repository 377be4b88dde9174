package court

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
)

func (d Decider) decideRegister(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	if actor == d.Params.EscrowAccount {
		return reject(rejectionCodeReservedAccount, "Account is reserved by the court")
	}
	if state, ok := w.Juror(actor); ok && state.Registered {
		return reject(rejectionCodeJurorAlreadyRegistered, "Already registered")
	}
	payload := JurorRegisteredPayload{Juror: actor, Stake: d.Params.JurorStake}
	return command.Accept(jurorEvent(cmd, EventTypeJurorRegistered, actor, payload, at))
}

func (d Decider) decideUnregister(w World, cmd command.Command, actor string, at time.Time) command.Decision {
	state, ok := w.Juror(actor)
	if !ok || !state.Registered {
		return reject(rejectionCodeJurorNotRegistered, "Not a registered juror")
	}
	if state.Serving {
		return reject(rejectionCodeJurorServing, "Cannot unregister while serving on a case")
	}
	payload := JurorUnregisteredPayload{Juror: actor, Refund: state.Stake}
	return command.Accept(jurorEvent(cmd, EventTypeJurorUnregistered, actor, payload, at))
}
