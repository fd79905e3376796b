// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with change watching
//   - EnvOverrides: environment variables (and an optional .env file)
//     layered over the stored settings
package file
