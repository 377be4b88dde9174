package juror

// State captures a juror account's registration and service status.
//
// A juror is either in the available pool or serving on exactly one case,
// never both.
type State struct {
	Account    string
	Stake      uint64
	Registered bool
	Serving    bool
	CaseID     uint64
}

// Available reports whether the juror may be drawn for a new jury.
func (s State) Available() bool {
	return s.Registered && !s.Serving && s.Stake > 0
}
