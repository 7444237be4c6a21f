// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Secrets such as the transit API key can be supplied through the
// environment (optionally from a .env file) and override the file values.
package config
