package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var wellnessJSON bool

var wellnessCmd = &cobra.Command{
	Use:   "wellness [emotion] [situation]",
	Short: "Supportive guidance for how you feel",
	Long: `Answers "I am feeling <emotion>. <situation>" through the answer path.

Examples:
  parable wellness anxious "My exam is tomorrow."
  parable wellness lonely`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWellness,
}

func init() {
	wellnessCmd.Flags().BoolVar(&wellnessJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(wellnessCmd)
}

func runWellness(cmd *cobra.Command, args []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	answer, err := guidanceService.Wellness(cmd.Context(), args[0], queryArg(args[1:]))
	if err != nil {
		return fmt.Errorf("wellness failed: %w", err)
	}

	if wellnessJSON {
		return writeJSON(cmd, newAnswerJSON(answer))
	}
	fmt.Fprint(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).answer(answer))
	return nil
}
