// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for queries to be served:
//
//   - PassageIndex: In-memory nearest-neighbour lookup over the corpus
//   - EmbeddingService: Turns query and passage text into vectors
//   - LLMService: Generates answers, narratives, and optional judge verdicts
//
// # Supporting Interfaces
//
//   - PassageStore: Durable passage persistence, the source of index snapshots
//   - Splitter: Divides document text into passage-sized pieces
//   - PromptStore: User-editable prompt templates
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
