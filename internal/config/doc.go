// Package config provides server configuration for PetrelMQ.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (value ranges, path creation)
//
// Configuration is loaded via internal/confloader from a YAML file and
// environment variables. All values are fixed at startup; there is no
// hot reload.
package config
