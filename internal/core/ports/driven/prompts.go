package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswer produces the grounded answer.
	// Placeholders: %s (passages), %s (question).
	PromptAnswer = "answer"

	// PromptSupportive produces the fallback answer when nothing was retrieved.
	// Placeholders: %s (question).
	PromptSupportive = "supportive"

	// PromptNarrativeDraft asks for one episode as JSON.
	// Placeholders: %s (numbered passages), %s (question).
	PromptNarrativeDraft = "narrative_draft"

	// PromptNarrativeRevise is appended on retries.
	// Placeholders: %s (bulleted prior violations).
	PromptNarrativeRevise = "narrative_revise"

	// PromptJudge asks the secondary judge for a JSON violation list.
	// Placeholders: %s (passages), %s (narrative).
	PromptJudge = "judge"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
