// Package domain defines the core business entities for Parable.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Passage: An embedded unit of corpus text with citation metadata
//   - RetrievalResult: Ranked passages, at most one per source document
//   - AnswerCandidate: The fast, unverified answer to a query
//   - NarrativeCandidate: A story draft that must pass verification
//   - Violation: A typed record of one grounding failure
//   - VerificationOutcome: The terminal state of the narrative loop
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
