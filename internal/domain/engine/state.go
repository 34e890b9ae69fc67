package engine

// State is a step of a single engine run.
type State string

// Run states. Ranked, Expired, QuotaExceeded, TimedOut, NoCandidates and
// Skipped are terminal.
const (
	StateIdle                State = "idle"
	StateValidating          State = "validating"
	StateGating              State = "gating"
	StateResolvingCandidates State = "resolving_candidates"
	StateScoring             State = "scoring"
	StateRanked              State = "ranked"
	StateExpired             State = "expired"
	StateQuotaExceeded       State = "quota_exceeded"
	StateTimedOut            State = "timed_out"
	StateNoCandidates        State = "no_candidates"
	StateSkipped             State = "skipped"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateRanked, StateExpired, StateQuotaExceeded, StateTimedOut, StateNoCandidates, StateSkipped:
		return true
	default:
		return false
	}
}
