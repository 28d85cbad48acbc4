package domain

import "time"

// OutcomeStatus is the terminal state of the narrative loop.
type OutcomeStatus string

// Terminal outcome states.
const (
	// OutcomeAccepted means a candidate passed every check.
	OutcomeAccepted OutcomeStatus = "ACCEPTED"

	// OutcomeRejected means the attempt budget or time budget ran out,
	// or a provider failed.
	OutcomeRejected OutcomeStatus = "REJECTED"

	// OutcomeNoNarrative means retrieval returned nothing to ground a story in.
	OutcomeNoNarrative OutcomeStatus = "NO_NARRATIVE_AVAILABLE"
)

// String returns the string representation.
func (s OutcomeStatus) String() string {
	return string(s)
}

// VerificationOutcome is the final result of narrating one query.
// It is immutable once returned.
type VerificationOutcome struct {
	// QueryID correlates the outcome with log lines.
	QueryID string `json:"query_id"`

	// Status is the terminal state.
	Status OutcomeStatus `json:"status"`

	// Candidate is set only when Status is OutcomeAccepted.
	Candidate *NarrativeCandidate `json:"story,omitempty"`

	// Violations holds the last attempt's violations when Status is OutcomeRejected.
	Violations []Violation `json:"violations,omitempty"`

	// Attempts is the number of draft/check cycles that ran.
	Attempts int `json:"attempts"`

	// Elapsed is the wall time spent in the loop.
	Elapsed time.Duration `json:"elapsed"`
}

// Accepted builds an accepted outcome.
func Accepted(candidate NarrativeCandidate, attempts int) VerificationOutcome {
	c := candidate
	return VerificationOutcome{Status: OutcomeAccepted, Candidate: &c, Attempts: attempts}
}

// Rejected builds a rejected outcome carrying the last violations.
func Rejected(violations []Violation, attempts int) VerificationOutcome {
	v := make([]Violation, len(violations))
	copy(v, violations)
	return VerificationOutcome{Status: OutcomeRejected, Violations: v, Attempts: attempts}
}

// NoNarrative builds the outcome for queries with no usable passages.
func NoNarrative() VerificationOutcome {
	return VerificationOutcome{Status: OutcomeNoNarrative}
}

// HasNarrative returns true if a verified narrative may be shown.
func (o VerificationOutcome) HasNarrative() bool {
	return o.Status == OutcomeAccepted && o.Candidate != nil
}
