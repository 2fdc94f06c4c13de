package cli

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/config"
	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
		Long: `Inspect and change the ritani-feeds settings file.
Keys: ` + fmt.Sprint(config.Keys()),
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
		newConfigInitCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Long:  "Show the settings in effect for this invocation, after RITANI_API_URL and flag overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if asYAML {
				return writeSettingsYAML(cmd, cfg)
			}
			return writeSettingsTable(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the settings in config file format")

	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one effective setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkKey(key); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.GetValue(key)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the settings file",
		Long:  "Change one setting in the settings file. Environment and flag overrides are not written.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return setSetting(args[0], args[1])
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with default values",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := getConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s (use --force to overwrite): %w", path, errors.ErrConfigFileExists)
			}
			if err := config.DefaultConfig().SaveConfig(path); err != nil {
				return fmt.Errorf("init %s: %w", path, err)
			}
			logger.Success("settings file written", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")

	return cmd
}

// checkKey rejects names that are not settings before any file is touched.
func checkKey(key string) error {
	if !slices.Contains(config.Keys(), key) {
		return errors.ErrUnknownConfigKeyWithName(key)
	}
	return nil
}

// setSetting edits the file as stored on disk, so overrides never leak into it.
func setSetting(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	cfg, err := loadConfigFile()
	if err != nil {
		return err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	path := getConfigPath()
	if err := cfg.SaveConfig(path); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	logger.Success("setting updated", logger.Fields{"key": key, "value": value, "path": path})
	return nil
}

func writeSettingsTable(cmd *cobra.Command, cfg *config.Config) error {
	values := cfg.ToMap()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(w, "SETTING\tVALUE")
	for _, key := range config.Keys() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", key, values[key])
	}
	return w.Flush()
}

func writeSettingsYAML(cmd *cobra.Command, cfg *config.Config) error {
	data, err := cfg.ToYAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	path, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes the following load or save fail with ErrEmptyConfigPath.
		logger.Warn("no default settings path", logger.Fields{"error": err})
		return ""
	}
	return path
}
