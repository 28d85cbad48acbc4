package mcp

import (
	"context"

	"github.com/custodia-labs/parable/internal/core/domain"
	"github.com/custodia-labs/parable/internal/core/ports/driving"
)

// Library lists the ingested documents. The passage store satisfies it.
type Library interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// Ports aggregates the interfaces the MCP server drives.
type Ports struct {
	// Guidance answers queries and narrates stories.
	Guidance driving.GuidanceService

	// Library backs the document resources. Optional.
	Library Library
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Guidance == nil {
		return ErrMissingGuidanceService
	}
	return nil
}
