package domain

import "fmt"

// ViolationKind categorises a grounding failure.
type ViolationKind string

// Violation kinds.
const (
	// ViolationFabricatedEntity is a named character, place, or object absent from the passages.
	ViolationFabricatedEntity ViolationKind = "FABRICATED_ENTITY"

	// ViolationInventedDialogue is quoted speech with no counterpart in the passages.
	ViolationInventedDialogue ViolationKind = "INVENTED_DIALOGUE"

	// ViolationUnsourcedEvent is an event claim the passages do not assert.
	ViolationUnsourcedEvent ViolationKind = "UNSOURCED_EVENT"

	// ViolationThematicDrift is a moral or outcome that substitutes a different lesson.
	ViolationThematicDrift ViolationKind = "THEMATIC_DRIFT"

	// ViolationTimelineError is an ordering that contradicts the passages.
	ViolationTimelineError ViolationKind = "TIMELINE_ERROR"

	// ViolationProviderFailure records a drafting or checking call that failed.
	// It is synthetic: the candidate was never fully checked.
	ViolationProviderFailure ViolationKind = "PROVIDER_FAILURE"

	// ViolationVerificationFailure records checker output that could not be parsed.
	ViolationVerificationFailure ViolationKind = "VERIFICATION_FAILURE"
)

// IsValid returns true if the kind is recognised.
func (k ViolationKind) IsValid() bool {
	switch k {
	case ViolationFabricatedEntity, ViolationInventedDialogue, ViolationUnsourcedEvent,
		ViolationThematicDrift, ViolationTimelineError,
		ViolationProviderFailure, ViolationVerificationFailure:
		return true
	default:
		return false
	}
}

// IsContentKind returns true for kinds a checker may report about a candidate's text.
// Synthetic kinds are excluded.
func (k ViolationKind) IsContentKind() bool {
	switch k {
	case ViolationFabricatedEntity, ViolationInventedDialogue, ViolationUnsourcedEvent,
		ViolationThematicDrift, ViolationTimelineError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ViolationKind) String() string {
	return string(k)
}

// AllViolationKinds returns every content violation kind in check order.
func AllViolationKinds() []ViolationKind {
	return []ViolationKind{
		ViolationFabricatedEntity,
		ViolationInventedDialogue,
		ViolationUnsourcedEvent,
		ViolationThematicDrift,
		ViolationTimelineError,
	}
}

// Violation is a single, typed grounding failure.
type Violation struct {
	// Kind is the category of failure.
	Kind ViolationKind `json:"kind"`

	// Description is a human-readable explanation.
	Description string `json:"description"`

	// OffendingSpan is the text in the candidate that triggered the violation.
	OffendingSpan string `json:"offending_span,omitempty"`
}

// String formats the violation for prompts and logs.
func (v Violation) String() string {
	if v.OffendingSpan == "" {
		return fmt.Sprintf("%s: %s", v.Kind, v.Description)
	}
	return fmt.Sprintf("%s: %s (%q)", v.Kind, v.Description, v.OffendingSpan)
}
