// Package court implements the arbitration rules: juror registration, case
// filing, commit-reveal voting, verdicts and appeals.
//
// Deciders are pure functions of a World snapshot and a command. They return
// events; Fold is the only place World changes. Token movements are derived
// from accepted events by Transfers, so the engine can pull escrow before the
// journal write and pay out after the fold.
package court
