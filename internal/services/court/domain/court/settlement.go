package court

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/decicourt/internal/services/court/domain/event"
	"github.com/louisbranch/decicourt/internal/services/court/domain/ledger"
)

// Transfers derives the token movements implied by accepted events.
//
// Pull is the single inbound escrow movement a command may need (stake,
// filing fee or appeal deposit); Payouts move tokens out of escrow. Nothing
// else touches the ledger.
func Transfers(events []event.Event, escrow string) (pull *ledger.Movement, payouts []ledger.Movement, err error) {
	inbound := func(from string, amount uint64) error {
		if pull != nil {
			return fmt.Errorf("more than one escrow pull in a decision")
		}
		pull = &ledger.Movement{From: from, To: escrow, Amount: amount, Spender: escrow}
		return nil
	}
	outbound := func(to string, amount uint64) {
		if amount > 0 {
			payouts = append(payouts, ledger.Movement{From: escrow, To: to, Amount: amount})
		}
	}
	for _, evt := range events {
		switch evt.Type {
		case EventTypeJurorRegistered:
			var p JurorRegisteredPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			if err := inbound(p.Juror, p.Stake); err != nil {
				return nil, nil, err
			}
		case EventTypeCaseCreated:
			var p CaseCreatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			if err := inbound(p.Plaintiff, p.FilingFee); err != nil {
				return nil, nil, err
			}
		case EventTypeAppealInitiated:
			var p AppealInitiatedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			if err := inbound(p.Appellant, p.Deposit); err != nil {
				return nil, nil, err
			}
		case EventTypeJurorUnregistered:
			var p JurorUnregisteredPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			outbound(p.Juror, p.Refund)
		case EventTypeJurorRewarded:
			var p JurorRewardedPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			outbound(p.Juror, p.Amount)
		case EventTypeCasePayout:
			var p CasePayoutPayload
			if err := json.Unmarshal(evt.PayloadJSON, &p); err != nil {
				return nil, nil, err
			}
			outbound(p.Recipient, p.Amount)
		}
	}
	return pull, payouts, nil
}
