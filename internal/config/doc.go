// Package config provides configuration management for the manifest downloader.
//
// This package handles:
//   - Default run-mode values
//   - Loading and saving settings as JSON or YAML
//   - Validation of contradictory modes (quiet and verbose)
//
// Settings are passed explicitly to the components that need them; there
// is no process-wide configuration state.
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Root directory is the working directory
//	// 512-byte chunks, 60s network timeouts
//
// # Loading from File
//
//	settings, err := config.Load("/etc/downloader.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Command-line flags are applied on top of the loaded values before
// Validate is called.
package config
