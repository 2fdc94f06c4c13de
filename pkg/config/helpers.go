package config

import (
	"fmt"
	"time"

	"github.com/glorpus-work/ritani-feeds/pkg/errors"
)

// Keys lists the settings addressable through SetValue and GetValue, in
// display order.
func Keys() []string {
	return []string{"api_url", "output_dir", "env_file", "http_timeout", "log_level", "log_format"}
}

// SetValue sets a configuration value by key
// Supported keys:
//   - api_url: string - Feed API base url
//   - output_dir: string - Directory downloads are written to
//   - env_file: string - Dotenv file holding ID and API_KEY
//   - http_timeout: duration - Client timeout, 0 for none
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - Log output format (text, json)
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "api_url":
		c.Settings.APIURL = value
	case "output_dir":
		c.Settings.OutputDir = value
	case "env_file":
		c.Settings.EnvFile = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HTTPTimeout = d
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	default:
		return errors.ErrUnknownConfigKeyWithName(key)
	}
	return nil
}

// GetValue returns the value as a string and any error encountered.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "api_url":
		return c.Settings.APIURL, nil
	case "output_dir":
		return c.Settings.OutputDir, nil
	case "env_file":
		return c.Settings.EnvFile, nil
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "log_level":
		return c.Settings.LogLevel, nil
	case "log_format":
		return c.Settings.LogFormat, nil
	default:
		return "", errors.ErrUnknownConfigKeyWithName(key)
	}
}

// ToMap returns every setting keyed by its name.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		value, _ := c.GetValue(key)
		result[key] = value
	}
	return result
}
