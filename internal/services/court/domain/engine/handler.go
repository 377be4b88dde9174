package engine

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	"github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
)

// Decider returns a decision for a command against a World snapshot.
type Decider interface {
	Decide(state court.World, cmd command.Command, now func() time.Time) command.Decision
}

// Handler validates and decides commands. It has no side effects.
type Handler struct {
	Commands *command.Registry
	Events   *event.Registry
	Decider  Decider
	Now      func() time.Time
}

// Handle validates cmd, decides it against state and validates the emitted
// events. It returns the normalized command alongside the decision.
func (h Handler) Handle(state court.World, cmd command.Command) (command.Command, command.Decision, error) {
	if h.Commands == nil {
		return cmd, command.Decision{}, ErrCommandRegistryRequired
	}
	validated, err := h.Commands.ValidateForDecision(cmd)
	if err != nil {
		return cmd, command.Decision{}, err
	}
	if h.Decider == nil {
		return validated, command.Decision{}, ErrDeciderRequired
	}

	decision := h.Decider.Decide(state, validated, h.clock())
	if h.Events != nil && len(decision.Events) > 0 {
		vetted := make([]event.Event, 0, len(decision.Events))
		for _, evt := range decision.Events {
			checked, err := h.Events.ValidateForAppend(evt)
			if err != nil {
				return validated, command.Decision{}, err
			}
			vetted = append(vetted, checked)
		}
		decision.Events = vetted
	}
	return validated, decision, nil
}

// clock returns now at millisecond precision, the precision the journal
// keeps, so a replayed World matches the live one.
func (h Handler) clock() func() time.Time {
	now := h.Now
	if now == nil {
		now = time.Now
	}
	return func() time.Time {
		return now().UTC().Truncate(time.Millisecond)
	}
}
