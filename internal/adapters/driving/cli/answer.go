package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var answerJSONOutput bool

var answerCmd = &cobra.Command{
	Use:   "answer [query]",
	Short: "Get fast guidance for a question",
	Long: `Retrieves the most relevant passages and writes a short answer from them.

Answers are not fact checked. When no passage matches, a general supportive
answer is given instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().BoolVar(&answerJSONOutput, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	answer, err := guidanceService.Answer(cmd.Context(), queryArg(args))
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if answerJSONOutput {
		return writeJSON(cmd, newAnswerJSON(answer))
	}
	fmt.Fprint(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).answer(answer))
	return nil
}
