// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.parable.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-notation keys
//   - PromptStore: editable prompt templates, one .txt file per prompt
package file
