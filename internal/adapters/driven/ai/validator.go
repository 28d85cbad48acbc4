package ai

import (
	"fmt"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks provider settings by pinging the provider.
// It backs "parable config check".
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider described by config.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if err := ValidateEmbeddingConfig(config); err != nil {
		return fmt.Errorf("%s embedding (%s): %w", config.Provider, config.Model, err)
	}
	return nil
}

// ValidateLLM pings the generation provider described by config.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if err := ValidateLLMConfig(config); err != nil {
		return fmt.Errorf("%s llm (%s): %w", config.Provider, config.Model, err)
	}
	return nil
}
