package driven

import "github.com/custodia-labs/parable/internal/core/domain"

// AIConfigValidator checks provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil if the provider is reachable or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the generation provider.
	// Returns nil if the provider is reachable or not configured.
	ValidateLLM(config *domain.LLMSettings) error
}
