package cli

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/config"
	"github.com/glorpus-work/ritani-feeds/pkg/credentials"
	rfhttp "github.com/glorpus-work/ritani-feeds/pkg/http"
	"github.com/spf13/cobra"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	EnvFile    *string
	APIURL     *string
	Verbose    *bool
	LogLevel   *string
)

// loadConfigFile reads the settings file as it is on disk.
func loadConfigFile() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadConfig returns the effective settings: the file, then RITANI_API_URL,
// then command line flags.
func loadConfig() (*config.Config, error) {
	cfg, err := loadConfigFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if APIURL != nil && *APIURL != "" {
		cfg.Settings.APIURL = *APIURL
	}
	if EnvFile != nil && *EnvFile != "" {
		cfg.Settings.EnvFile = *EnvFile
	}
	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// prepare loads the effective settings and configures logging from them.
func prepare() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(strings.ToLower(cfg.Settings.LogFormat)))
	logger.Debug("configuration loaded", logger.Fields{
		"api_url":  cfg.Settings.APIURL,
		"env_file": cfg.Settings.EnvFile,
	})
	return cfg, nil
}

func newHTTPClient(cfg *config.Config) *rfhttp.Client {
	return rfhttp.NewHTTPClient(cfg.Settings.HTTPTimeout, UserAgent())
}

// newAcquirer prompts on the command's error stream so stdout stays clean.
func newAcquirer(cmd *cobra.Command, cfg *config.Config, hc *rfhttp.Client) *credentials.Acquirer {
	return credentials.NewAcquirer(
		credentials.NewStore(cfg.Settings.EnvFile),
		credentials.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr()),
		credentials.NewVerifier(hc, cfg.Settings.APIURL),
	)
}
