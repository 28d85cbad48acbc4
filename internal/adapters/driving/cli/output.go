package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/parable/internal/core/domain"
)

var errGuidanceNotConfigured = errors.New("guidance service not configured")

// answerJSON is the JSON shape of an answer. Sources replace the raw passages.
type answerJSON struct {
	domain.AnswerCandidate
	Sources []string `json:"sources,omitempty"`
}

func newAnswerJSON(a domain.AnswerCandidate) answerJSON {
	return answerJSON{AnswerCandidate: a, Sources: a.Sources()}
}

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// queryArg joins positional arguments so unquoted queries work.
func queryArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
