// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The guidance pipeline is built from five parts:
//   - Retriever embeds a query and reads the passage index
//   - AnswerSynthesizer writes the fast, unverified answer
//   - NarrativeDrafter asks for one story episode as strict JSON
//   - FactChecker compares a draft against its passages
//   - RegenerationController runs the bounded draft/check loop
//
// Services are pure Go with no CGO.
package services
