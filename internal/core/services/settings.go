package services

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driven"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMRPS            = "llm.requests_per_second"
	keyPipelineK         = "pipeline.k"
	keyPipelineSearchK   = "pipeline.search_k"
	keyMaxAttempts       = "pipeline.max_attempts"
	keyAnswerTimeout     = "pipeline.answer_timeout_seconds"
	keyNarrativeTimeout  = "pipeline.narrative_timeout_seconds"
	keyTemperature       = "pipeline.temperature"
	keyMaxTokens         = "pipeline.max_tokens"
	keyEntityThreshold   = "checker.entity_threshold"
	keyDialogueThreshold = "checker.dialogue_threshold"
	keyLLMJudge          = "checker.llm_judge"
	keyDriftPhrases      = "checker.drift_phrases"
	keyChunkSize         = "chunker.size"
	keyChunkOverlap      = "chunker.overlap"
)

type keyType int

const (
	typeString keyType = iota
	typeInt
	typeFloat
	typeBool
)

// knownKeys lists every key Set accepts with the type it is stored as.
var knownKeys = map[string]keyType{
	keyEmbedProvider:     typeString,
	keyEmbedModel:        typeString,
	keyEmbedBaseURL:      typeString,
	keyEmbedAPIKey:       typeString,
	keyEmbedRPS:          typeFloat,
	keyLLMProvider:       typeString,
	keyLLMModel:          typeString,
	keyLLMBaseURL:        typeString,
	keyLLMAPIKey:         typeString,
	keyLLMRPS:            typeFloat,
	keyPipelineK:         typeInt,
	keyPipelineSearchK:   typeInt,
	keyMaxAttempts:       typeInt,
	keyAnswerTimeout:     typeFloat,
	keyNarrativeTimeout:  typeFloat,
	keyTemperature:       typeFloat,
	keyMaxTokens:         typeInt,
	keyEntityThreshold:   typeFloat,
	keyDialogueThreshold: typeFloat,
	keyLLMJudge:          typeBool,
	keyChunkSize:         typeInt,
	keyChunkOverlap:      typeInt,
}

// KnownKeys returns the settable configuration keys in sorted order.
func KnownKeys() []string {
	return slices.Sorted(maps.Keys(knownKeys))
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.getFloat(keyLLMRPS, defaults.LLM.RequestsPerSecond),
		},
		Pipeline: domain.PipelineSettings{
			K:                s.getInt(keyPipelineK, defaults.Pipeline.K),
			SearchK:          s.getInt(keyPipelineSearchK, defaults.Pipeline.SearchK),
			MaxAttempts:      s.getInt(keyMaxAttempts, defaults.Pipeline.MaxAttempts),
			AnswerTimeout:    s.getSeconds(keyAnswerTimeout, defaults.Pipeline.AnswerTimeout),
			NarrativeTimeout: s.getSeconds(keyNarrativeTimeout, defaults.Pipeline.NarrativeTimeout),
			Temperature:      s.getFloat(keyTemperature, defaults.Pipeline.Temperature),
			MaxTokens:        s.getInt(keyMaxTokens, defaults.Pipeline.MaxTokens),
		},
		Checker: domain.CheckerSettings{
			EntityThreshold:   s.getFloat(keyEntityThreshold, defaults.Checker.EntityThreshold),
			DialogueThreshold: s.getFloat(keyDialogueThreshold, defaults.Checker.DialogueThreshold),
			LLMJudge:          s.getBool(keyLLMJudge, defaults.Checker.LLMJudge),
			DriftPhrases:      s.configStore.GetStringSlice(keyDriftPhrases),
		},
		Chunker: domain.ChunkerSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunker.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunker.Overlap),
		},
	}

	return settings, nil
}

// Set stores a single configuration key, converting string values to the key's type.
func (s *SettingsService) Set(key string, value any) error {
	typ, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	str, isString := value.(string)
	if !isString || typ == typeString {
		return s.configStore.Set(key, value)
	}

	var (
		parsed any
		err    error
	)
	str = strings.TrimSpace(str)
	switch typ {
	case typeInt:
		parsed, err = strconv.Atoi(str)
	case typeFloat:
		parsed, err = strconv.ParseFloat(str, 64)
	case typeBool:
		parsed, err = strconv.ParseBool(str)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	return s.configStore.Set(key, parsed)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	// Local providers need a base URL; cloud providers use their own.
	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(keyEmbedBaseURL, "http://localhost:11434")
	}

	return s.setAll(map[string]any{
		keyEmbedProvider: provider.String(),
		keyEmbedModel:    model,
		keyEmbedBaseURL:  baseURL,
		keyEmbedAPIKey:   apiKey,
	})
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}
	baseURL := ""
	if provider.IsLocal() {
		baseURL = s.getString(keyLLMBaseURL, "http://localhost:11434")
	}

	return s.setAll(map[string]any{
		keyLLMProvider: provider.String(),
		keyLLMModel:    model,
		keyLLMBaseURL:  baseURL,
		keyLLMAPIKey:   apiKey,
	})
}

func (s *SettingsService) setAll(values map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks that both providers are configured and the limits are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, errors.New("embedding provider is not configured"))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, errors.New("LLM provider is not configured"))
	}
	if settings.Pipeline.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", keyMaxAttempts))
	}
	if settings.Chunker.Overlap >= settings.Chunker.Size {
		errs = append(errs, fmt.Errorf("%s must be smaller than %s", keyChunkOverlap, keyChunkSize))
	}
	if t := settings.Checker.EntityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("%s must be in (0, 1]", keyEntityThreshold))
	}
	if t := settings.Checker.DialogueThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("%s must be in (0, 1]", keyDialogueThreshold))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	secs := s.getFloat(key, 0)
	if secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs * float64(time.Second))
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
