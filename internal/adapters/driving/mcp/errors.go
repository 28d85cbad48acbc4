// Package mcp provides an MCP (Model Context Protocol) server adapter for Parable.
// It lets AI assistants ask for answers, verified stories and source passages.
package mcp

import "errors"

// ErrMissingGuidanceService is returned when the guidance service is not provided.
var ErrMissingGuidanceService = errors.New("mcp: guidance service is required")
