package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var narrateJSONOutput bool

var narrateCmd = &cobra.Command{
	Use:   "narrate [query]",
	Short: "Tell a verified story for a situation",
	Long: `Drafts a story from the retrieved passages and checks it against them.

A draft that names people who are not in the passages, invents dialogue,
adds events, changes the teaching or reorders events is rejected and
redrafted with the problems listed. Only a draft that passes is shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNarrate,
}

func init() {
	narrateCmd.Flags().BoolVar(&narrateJSONOutput, "json", false, "output the outcome as JSON")
	rootCmd.AddCommand(narrateCmd)
}

func runNarrate(cmd *cobra.Command, args []string) error {
	if guidanceService == nil {
		return errGuidanceNotConfigured
	}

	outcome, err := guidanceService.Narrate(cmd.Context(), queryArg(args))
	if err != nil {
		return fmt.Errorf("narrate failed: %w", err)
	}

	if narrateJSONOutput {
		return writeJSON(cmd, outcome)
	}
	fmt.Fprint(cmd.OutOrStdout(), newRenderer(cmd.OutOrStdout()).outcome(outcome))
	return nil
}
