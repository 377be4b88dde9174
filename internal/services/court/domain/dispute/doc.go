// Package dispute models cases, voting rounds and sealed ballots.
//
// A case opens with one round. An appeal appends a second round with a
// larger jury; the case becomes terminal once that round is tallied.
package dispute
