package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
)

var (
	askJSONOutput bool
	askNoStory    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Get guidance now and a verified story when it is ready",
	Long: `Runs the answer and the story side by side.

The answer is printed as soon as it is written. The story follows once it
has passed fact checking, which takes longer. Use --no-story to stop after
the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSONOutput, "json", false, "output both results as one JSON object")
	askCmd.Flags().BoolVar(&askNoStory, "no-story", false, "skip the story")
	rootCmd.AddCommand(askCmd)
}

// askResult is the JSON shape of "parable ask".
type askResult struct {
	QueryID        string                      `json:"query_id"`
	Answer         *answerJSON                 `json:"answer,omitempty"`
	AnswerError    string                      `json:"answer_error,omitempty"`
	Narrative      *domain.VerificationOutcome `json:"narrative,omitempty"`
	NarrativeError string                      `json:"narrative_error,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	delivery := guidanceService.Guide(cmd.Context(), queryArg(args))
	defer delivery.CancelNarrative()
	if askNoStory {
		delivery.CancelNarrative()
	}

	out := cmd.OutOrStdout()
	r := newRenderer(out)
	result := askResult{QueryID: delivery.QueryID}

	ans := <-delivery.Answer
	switch {
	case ans.Err != nil:
		result.AnswerError = ans.Err.Error()
		if !askJSONOutput {
			fmt.Fprintln(cmd.ErrOrStderr(), r.failure.Render("Answer failed: "+ans.Err.Error()))
		}
	case askJSONOutput:
		a := newAnswerJSON(ans.Answer)
		result.Answer = &a
	default:
		fmt.Fprintln(out, r.answer(ans.Answer))
		if !askNoStory {
			fmt.Fprintln(cmd.ErrOrStderr(), r.muted.Render("Checking a story against the sources..."))
		}
	}

	var narrative driving.NarrativeResult
	if !askNoStory {
		narrative = <-delivery.Narrative
		switch {
		case narrative.Err != nil:
			result.NarrativeError = narrative.Err.Error()
			if !askJSONOutput {
				fmt.Fprintln(cmd.ErrOrStderr(), r.failure.Render("Story failed: "+narrative.Err.Error()))
			}
		case askJSONOutput:
			result.Narrative = &narrative.Outcome
		default:
			fmt.Fprint(out, r.outcome(narrative.Outcome))
		}
	}

	if askJSONOutput {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	}
	if ans.Err != nil && (askNoStory || narrative.Err != nil) {
		return fmt.Errorf("ask failed: %w", ans.Err)
	}
	return nil
}
