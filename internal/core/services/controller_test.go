package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/parable/internal/core/domain"
)

var (
	driftViolation  = domain.Violation{Kind: domain.ViolationThematicDrift, Description: "drift", OffendingSpan: "win"}
	entityViolation = domain.Violation{Kind: domain.ViolationFabricatedEntity, Description: "unknown", OffendingSpan: "Bhima"}
)

func draftingOK() *scriptedDrafter {
	return &scriptedDrafter{respond: func(attempt int) (domain.NarrativeCandidate, error) {
		c := groundedCandidate()
		c.AttemptNumber = attempt
		return c, nil
	}}
}

func verdicts(vs ...[]domain.Violation) *scriptedVerifier {
	return &scriptedVerifier{respond: func(call int) ([]domain.Violation, error) {
		if call < len(vs) {
			return vs[call], nil
		}
		return vs[len(vs)-1], nil
	}}
}

func TestRegenerationController_AcceptsFirstAttempt(t *testing.T) {
	drafter := draftingOK()
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts)
	require.NotNil(t, outcome.Candidate)
	assert.Equal(t, 1, outcome.Candidate.AttemptNumber)
	assert.Empty(t, outcome.Violations)
	assert.Equal(t, 1, drafter.attempts())
}

func TestRegenerationController_AcceptsAfterRetry(t *testing.T) {
	drafter := draftingOK()
	c := NewRegenerationController(drafter, verdicts([]domain.Violation{driftViolation}, nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	assert.Equal(t, 2, outcome.Candidate.AttemptNumber)
	assert.Nil(t, drafter.priors[0])
	assert.Equal(t, []domain.Violation{driftViolation}, drafter.priors[1])
}

func TestRegenerationController_RejectsAfterMaxAttempts(t *testing.T) {
	drafter := draftingOK()
	verifier := verdicts(
		[]domain.Violation{driftViolation},
		[]domain.Violation{entityViolation},
		[]domain.Violation{entityViolation, driftViolation},
	)
	c := NewRegenerationController(drafter, verifier, 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Nil(t, outcome.Candidate)
	assert.Equal(t, []domain.Violation{entityViolation, driftViolation}, outcome.Violations)
	assert.Equal(t, 3, drafter.attempts())
	assert.Equal(t, int32(3), verifier.calls.Load())
	assert.Equal(t, []domain.Violation{entityViolation}, drafter.priors[2])
}

func TestRegenerationController_NoPassages(t *testing.T) {
	drafter := draftingOK()
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoNarrative, outcome.Status)
	assert.Zero(t, outcome.Attempts)
	assert.Zero(t, drafter.attempts())
}

func TestRegenerationController_ProviderFailureRejectsImmediately(t *testing.T) {
	drafter := &scriptedDrafter{respond: func(int) (domain.NarrativeCandidate, error) {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("draft", errProvider)
	}}
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts)
	require.Len(t, outcome.Violations, 1)
	assert.Equal(t, domain.ViolationProviderFailure, outcome.Violations[0].Kind)
	assert.Contains(t, outcome.Violations[0].Description, "connection refused")
	assert.Equal(t, 1, drafter.attempts())
}

func TestRegenerationController_UnusableOutputCostsAnAttempt(t *testing.T) {
	drafter := &scriptedDrafter{respond: func(attempt int) (domain.NarrativeCandidate, error) {
		if attempt == 1 {
			return domain.NarrativeCandidate{}, domain.NewGenerationFailure("parse draft",
				fmt.Errorf("%w: not json", domain.ErrUnusableOutput))
		}
		return groundedCandidate(), nil
	}}
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAccepted, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	require.Len(t, drafter.priors[1], 1)
	assert.Equal(t, domain.ViolationProviderFailure, drafter.priors[1][0].Kind)
}

func TestRegenerationController_UnusableOutputEveryTime(t *testing.T) {
	drafter := &scriptedDrafter{respond: func(int) (domain.NarrativeCandidate, error) {
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("parse draft", domain.ErrUnusableOutput)
	}}
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 3, drafter.attempts())
}

func TestRegenerationController_VerificationFailureIsNeverAccepted(t *testing.T) {
	verifier := &scriptedVerifier{respond: func(int) ([]domain.Violation, error) {
		return nil, domain.NewVerificationFailure("parse judge verdict", errors.New("bad json"))
	}}
	c := NewRegenerationController(draftingOK(), verifier, 2, time.Second)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	require.Len(t, outcome.Violations, 1)
	assert.Equal(t, domain.ViolationVerificationFailure, outcome.Violations[0].Kind)
}

func TestRegenerationController_BudgetExhausted(t *testing.T) {
	drafter := &scriptedDrafter{respond: func(int) (domain.NarrativeCandidate, error) {
		time.Sleep(30 * time.Millisecond)
		return groundedCandidate(), nil
	}}
	verifier := verdicts([]domain.Violation{driftViolation})
	c := NewRegenerationController(drafter, verifier, 3, 40*time.Millisecond)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.LessOrEqual(t, outcome.Attempts, 3)
	require.Len(t, outcome.Violations, 1)
	assert.Equal(t, domain.ViolationProviderFailure, outcome.Violations[0].Kind)
	assert.Contains(t, outcome.Violations[0].Description, "time budget")
}

func TestRegenerationController_BudgetCoversAllAttempts(t *testing.T) {
	drafter := &scriptedDrafter{respond: func(int) (domain.NarrativeCandidate, error) {
		time.Sleep(20 * time.Millisecond)
		return groundedCandidate(), nil
	}}
	c := NewRegenerationController(drafter, verdicts([]domain.Violation{driftViolation}), 3, 50*time.Millisecond)

	outcome, err := c.Run(context.Background(), "q", fixturePassages())

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRejected, outcome.Status)
	assert.Less(t, outcome.Elapsed, 500*time.Millisecond)
	assert.Contains(t, outcome.Violations[0].Description, "time budget")
}

func TestRegenerationController_CallerCancelReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	drafter := &scriptedDrafter{respond: func(int) (domain.NarrativeCandidate, error) {
		cancel()
		return domain.NarrativeCandidate{}, domain.NewGenerationFailure("draft", context.Canceled)
	}}
	c := NewRegenerationController(drafter, verdicts(nil), 3, time.Second)

	outcome, err := c.Run(ctx, "q", fixturePassages())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcome.Status)
}

func TestRegenerationController_Defaults(t *testing.T) {
	c := NewRegenerationController(draftingOK(), verdicts(nil), 0, 0)

	defaults := domain.DefaultPipelineSettings()
	assert.Equal(t, defaults.MaxAttempts, c.maxAttempts)
	assert.Equal(t, defaults.NarrativeTimeout, c.budget)
}

func TestLoopState_String(t *testing.T) {
	assert.Equal(t, "DRAFTING", stateDrafting.String())
	assert.Equal(t, "CHECKING", stateChecking.String())
}
