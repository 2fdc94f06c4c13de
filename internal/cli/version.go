package cli

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"
)

// Build information, overridable with -ldflags "-X".
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// devVersion stands in for a Version that does not parse.
const devVersion = "0.0.0-dev"

// ParsedVersion returns Version as a semantic version.
func ParsedVersion() *version.Version {
	v, err := version.NewVersion(Version)
	if err != nil {
		return version.Must(version.NewVersion(devVersion))
	}
	return v
}

// UserAgent is sent with every request, e.g. "ritani-feeds/0.3.0".
func UserAgent() string {
	return "ritani-feeds/" + ParsedVersion().String()
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var require string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for ritani-feeds.
With --require the command fails unless the version satisfies the constraint,
so scripts can check for the features they rely on.`,
		Example: `  ritani-feeds version
  ritani-feeds version --require ">= 0.3, < 1.0"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, require)
		},
	}

	cmd.Flags().StringVar(&require, "require", "", "Fail unless the version satisfies this constraint")

	return cmd
}

func runVersion(cmd *cobra.Command, require string) error {
	current := ParsedVersion()

	if require != "" {
		constraints, err := version.NewConstraint(require)
		if err != nil {
			return fmt.Errorf("invalid version constraint %q: %w", require, err)
		}
		if !constraints.Check(current) {
			return fmt.Errorf("ritani-feeds version %s does not satisfy %q", current, require)
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "ritani-feeds version %s\n", current)
	_, _ = fmt.Fprintf(out, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
	_, _ = fmt.Fprintf(out, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}
