// Package errors defines the sentinel errors shared across ritani-feeds and small
// helpers for adding context to them.
package errors

import "fmt"

// Common error types.
var (
	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")

	// Settings validation errors.
	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")
	ErrInvalidLogLevel     = fmt.Errorf("invalid log level")
	ErrInvalidAPIURL       = fmt.Errorf("invalid api url")

	// Argument errors are detected before any network access.
	ErrInvalidArguments = fmt.Errorf("invalid arguments")
	ErrInvalidProduct   = fmt.Errorf("invalid product line")
	ErrFileNotFound     = fmt.Errorf("file not found")
	ErrNotRegularFile   = fmt.Errorf("not a regular file")
	ErrEmptyPaths       = fmt.Errorf("source and destination paths cannot be empty")

	// Credential errors.
	ErrMissingCredentials   = fmt.Errorf("vendor id and api key are required")
	ErrInvalidCredentials   = fmt.Errorf("invalid vendor id or api key")
	ErrAuthenticationFailed = fmt.Errorf("failed to authenticate")
	ErrNoAnswer             = fmt.Errorf("no answer given")
	ErrCredentialsSave      = fmt.Errorf("failed to save credentials")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidLogLevelWithDetails creates a wrapped error naming the invalid level and the valid ones.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrInvalidProductWithName creates a wrapped error naming the rejected product line.
func ErrInvalidProductWithName(name string) error {
	return fmt.Errorf("%w: %q (expected diamonds or gemstones)", ErrInvalidProduct, name)
}

// ErrUnknownConfigKeyWithName creates a wrapped error naming the unknown key.
func ErrUnknownConfigKeyWithName(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
