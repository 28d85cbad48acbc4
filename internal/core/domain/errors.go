package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Answering and narration are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrRetrievalFailure indicates embedding the query or reading the index failed.
	// It is surfaced to the caller without retry.
	ErrRetrievalFailure = errors.New("retrieval failed")

	// ErrGenerationFailure indicates a generation call failed or returned nothing usable.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrUnusableOutput indicates the model answered but the text was empty or malformed.
	// It is wrapped by ErrGenerationFailure and counts against the attempt budget.
	ErrUnusableOutput = errors.New("unusable model output")

	// ErrVerificationFailure indicates the fact checker could not produce a parseable verdict.
	// The regeneration loop treats it as a violation, never as acceptance.
	ErrVerificationFailure = errors.New("verification failed")
)

// PipelineError attaches the failing operation to one of the pipeline sentinels.
type PipelineError struct {
	// Kind is ErrRetrievalFailure, ErrGenerationFailure, or ErrVerificationFailure.
	Kind error

	// Op names the step that failed, e.g. "embed query" or "draft narrative".
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the sentinel kind and the cause to errors.Is.
func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewRetrievalFailure wraps err as a retrieval failure.
func NewRetrievalFailure(op string, err error) error {
	return &PipelineError{Kind: ErrRetrievalFailure, Op: op, Err: err}
}

// NewGenerationFailure wraps err as a generation failure.
func NewGenerationFailure(op string, err error) error {
	return &PipelineError{Kind: ErrGenerationFailure, Op: op, Err: err}
}

// NewVerificationFailure wraps err as a verification failure.
func NewVerificationFailure(op string, err error) error {
	return &PipelineError{Kind: ErrVerificationFailure, Op: op, Err: err}
}
