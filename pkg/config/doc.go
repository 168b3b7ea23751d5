// Package config loads and validates the environment creation configuration
// from YAML. The create command takes one config file describing the
// environment: name, provider, SSH credentials and tracker ports. Parsing is
// strict (unknown fields are rejected) and validation runs before any typed
// environment value is constructed.
package config
