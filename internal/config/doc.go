// Package config loads the agentwire client configuration from YAML with
// environment variable expansion and duration parsing.
package config
