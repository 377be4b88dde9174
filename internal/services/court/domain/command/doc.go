// Package command defines the command envelope, the registry that validates
// it, and the decision type deciders return.
//
// Commands express intent from API callers. Every command is normalized and
// validated here before any decider sees it, so deciders only reason about
// business rules.
package command
