// Package config builds the process configuration of the circulation binary.
//
// Settings come from the environment, optionally preloaded from a .env file. The package
// also opens the selected engine with tuned connection pools and sets up logging and the
// OpenTelemetry providers.
package config
