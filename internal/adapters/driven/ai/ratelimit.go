package ai

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/parable/internal/core/ports/driven"
)

// Ensure the decorators implement the interfaces.
var (
	_ driven.LLMService       = (*RateLimitedLLM)(nil)
	_ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)
)

// newLimiter builds a token bucket whose burst covers one second of traffic.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	burst := max(1, int(math.Ceil(requestsPerSecond)))
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// RateLimitedLLM throttles Generate calls. Waiting honours the caller's
// context, so a query's time budget also covers time spent queued.
type RateLimitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// NewRateLimitedLLM wraps svc. A non-positive rate returns svc unchanged.
func NewRateLimitedLLM(svc driven.LLMService, requestsPerSecond float64) driven.LLMService {
	if svc == nil || requestsPerSecond <= 0 {
		return svc
	}
	return &RateLimitedLLM{LLMService: svc, limiter: newLimiter(requestsPerSecond)}
}

// Generate waits for a token, then delegates.
func (r *RateLimitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.LLMService.Generate(ctx, prompt, opts)
}

// RateLimitedEmbedding throttles embedding requests. A batch costs one token.
type RateLimitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps svc. A non-positive rate returns svc unchanged.
func NewRateLimitedEmbedding(svc driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if svc == nil || requestsPerSecond <= 0 {
		return svc
	}
	return &RateLimitedEmbedding{EmbeddingService: svc, limiter: newLimiter(requestsPerSecond)}
}

// Embed waits for a token, then delegates.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then delegates.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.EmbeddingService.EmbedBatch(ctx, texts)
}
