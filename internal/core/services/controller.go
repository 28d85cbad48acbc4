package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/logger"
	"github.com/custodia-labs/parable/internal/metrics"
)

// Drafter produces complete narrative candidates.
type Drafter interface {
	Draft(ctx context.Context, query string, passages []domain.Passage,
		prior []domain.Violation, attempt int) (domain.NarrativeCandidate, error)
}

// Verifier returns the violations of a candidate against its passages.
type Verifier interface {
	Check(ctx context.Context, candidate domain.NarrativeCandidate,
		passages []domain.Passage) ([]domain.Violation, error)
}

var (
	_ Drafter  = (*NarrativeDrafter)(nil)
	_ Verifier = (*FactChecker)(nil)
)

// loopState is a state of the regeneration loop.
type loopState int

const (
	stateDrafting loopState = iota
	stateChecking
)

func (s loopState) String() string {
	if s == stateChecking {
		return "CHECKING"
	}
	return "DRAFTING"
}

// RegenerationController runs the bounded draft/check loop for one query
// at a time. It holds no per-query state and may be shared.
type RegenerationController struct {
	drafter     Drafter
	verifier    Verifier
	maxAttempts int
	budget      time.Duration
}

// NewRegenerationController creates a controller. Non-positive limits fall
// back to the pipeline defaults.
func NewRegenerationController(
	drafter Drafter, verifier Verifier, maxAttempts int, budget time.Duration,
) *RegenerationController {
	defaults := domain.DefaultPipelineSettings()
	if maxAttempts <= 0 {
		maxAttempts = defaults.MaxAttempts
	}
	if budget <= 0 {
		budget = defaults.NarrativeTimeout
	}
	return &RegenerationController{
		drafter:     drafter,
		verifier:    verifier,
		maxAttempts: maxAttempts,
		budget:      budget,
	}
}

// Run drives one query to a terminal outcome. Attempts are strictly
// sequential and the time budget covers all of them together.
//
// Rejection and an empty passage set are outcomes, not errors. Run returns
// an error only when ctx itself is cancelled; the in-flight result is
// then discarded.
func (c *RegenerationController) Run(
	ctx context.Context, query string, passages []domain.Passage,
) (domain.VerificationOutcome, error) {
	start := time.Now()
	finish := func(o domain.VerificationOutcome) (domain.VerificationOutcome, error) {
		o.Elapsed = time.Since(start)
		metrics.ObserveOutcome(o)
		logger.Debug("Narrative loop finished: %s after %d attempt(s) in %s", o.Status, o.Attempts, o.Elapsed)
		return o, nil
	}

	if len(passages) == 0 {
		return finish(domain.NoNarrative())
	}

	loopCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	var (
		state     = stateDrafting
		attempt   = 1
		prior     []domain.Violation
		candidate domain.NarrativeCandidate
	)

	for {
		if err := ctx.Err(); err != nil {
			return domain.VerificationOutcome{}, err
		}
		if loopCtx.Err() != nil {
			return finish(domain.Rejected([]domain.Violation{budgetViolation(c.budget)}, attempt))
		}

		logger.Debug("Narrative attempt %d/%d: %s", attempt, c.maxAttempts, state)

		switch state {
		case stateDrafting:
			var err error
			candidate, err = c.drafter.Draft(loopCtx, query, passages, prior, attempt)
			if err == nil {
				state = stateChecking
				continue
			}
			if ctx.Err() != nil {
				return domain.VerificationOutcome{}, ctx.Err()
			}
			if loopCtx.Err() != nil {
				return finish(domain.Rejected([]domain.Violation{budgetViolation(c.budget)}, attempt))
			}
			if !errors.Is(err, domain.ErrUnusableOutput) {
				logger.Warn("Narrative draft failed: %v", err)
				return finish(domain.Rejected([]domain.Violation{providerViolation(err)}, attempt))
			}
			// The model answered but unusably; that costs an attempt.
			prior = []domain.Violation{providerViolation(err)}

		case stateChecking:
			violations, err := c.verifier.Check(loopCtx, candidate, passages)
			if err != nil {
				if ctx.Err() != nil {
					return domain.VerificationOutcome{}, ctx.Err()
				}
				if loopCtx.Err() != nil {
					return finish(domain.Rejected([]domain.Violation{budgetViolation(c.budget)}, attempt))
				}
				if !errors.Is(err, domain.ErrVerificationFailure) {
					logger.Warn("Narrative check failed: %v", err)
					return finish(domain.Rejected([]domain.Violation{providerViolation(err)}, attempt))
				}
				violations = []domain.Violation{{
					Kind:        domain.ViolationVerificationFailure,
					Description: err.Error(),
				}}
			}

			metrics.ObserveViolations(violations)
			if len(violations) == 0 {
				return finish(domain.Accepted(candidate, attempt))
			}
			prior = violations
		}

		// A failed attempt: retry or give up.
		if attempt >= c.maxAttempts {
			return finish(domain.Rejected(prior, attempt))
		}
		attempt++
		state = stateDrafting
	}
}

func providerViolation(err error) domain.Violation {
	return domain.Violation{
		Kind:        domain.ViolationProviderFailure,
		Description: err.Error(),
	}
}

func budgetViolation(budget time.Duration) domain.Violation {
	return domain.Violation{
		Kind:        domain.ViolationProviderFailure,
		Description: fmt.Sprintf("narrative time budget of %s exhausted", budget),
	}
}
