// Package engine runs court commands end to end.
//
// Handler validates a command, asks the decider for a decision and vets the
// emitted events. Core adds everything around the pure decision: the
// reentrancy guard, the escrow pull, the journal append, the fold and the
// payouts, in that order. Processor serializes Core behind one goroutine so
// no two commands interleave.
package engine
