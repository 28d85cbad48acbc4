package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles embedding calls (0 disables throttling).
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond throttles generation calls (0 disables throttling).
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// PipelineSettings holds retrieval and generation behaviour.
type PipelineSettings struct {
	// K is the number of passages retrieved per query.
	K int

	// SearchK is the default number of passages returned by passage-only search.
	SearchK int

	// MaxAttempts bounds the draft/check cycles per narrative.
	MaxAttempts int

	// AnswerTimeout is the total budget for the answer path, including its retry.
	AnswerTimeout time.Duration

	// NarrativeTimeout is the total budget across all narrative attempts.
	NarrativeTimeout time.Duration

	// Temperature is used for answer and narrative generation.
	Temperature float64

	// MaxTokens caps generated output length.
	MaxTokens int
}

// CheckerSettings holds fact checker thresholds.
// Thresholds are tunable and validated against regression fixtures.
type CheckerSettings struct {
	// EntityThreshold is the minimum fuzzy similarity for an entity to count as present.
	EntityThreshold float64

	// DialogueThreshold is the minimum token overlap for a quote to count as paraphrased.
	DialogueThreshold float64

	// LLMJudge enables the secondary generation-backed judge.
	LLMJudge bool

	// DriftPhrases extends the built-in denylist of known-drift phrasings.
	DriftPhrases []string
}

// ChunkerSettings controls how documents are split into passages.
type ChunkerSettings struct {
	// Size is the target passage length in characters.
	Size int

	// Overlap is the number of characters shared between consecutive passages.
	Overlap int
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Pipeline holds retrieval and generation settings.
	Pipeline PipelineSettings

	// Checker holds fact checker settings.
	Checker CheckerSettings

	// Chunker holds ingestion chunking settings.
	Chunker ChunkerSettings
}

// DefaultPipelineSettings returns the pipeline defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		K:                5,
		SearchK:          3,
		MaxAttempts:      3,
		AnswerTimeout:    10 * time.Second,
		NarrativeTimeout: 45 * time.Second,
		Temperature:      0.7,
		MaxTokens:        800,
	}
}

// DefaultCheckerSettings returns the fact checker defaults.
func DefaultCheckerSettings() CheckerSettings {
	return CheckerSettings{
		EntityThreshold:   0.8,
		DialogueThreshold: 0.6,
	}
}

// DefaultChunkerSettings returns the chunking defaults.
func DefaultChunkerSettings() ChunkerSettings {
	return ChunkerSettings{
		Size:    800,
		Overlap: 150,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users set them in config.toml.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{},
		LLM:       LLMSettings{},
		Pipeline:  DefaultPipelineSettings(),
		Checker:   DefaultCheckerSettings(),
		Chunker:   DefaultChunkerSettings(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
