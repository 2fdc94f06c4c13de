package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/ritani-feeds/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	apiURL     string
	verbose    bool
	logLevel   string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ritani-feeds",
		Short: "Exchange product feeds with the ritani vendor API",
		Long: `ritani-feeds downloads and uploads ritani vendor feeds:
- download the current diamonds or gemstones feed, or its report
- upload a CSV feed through a pre-signed url
- keep the vendor id and api key in a local env file

If ID and API_KEY are neither in the environment nor in the env file,
the vendor id and api key are asked for and checked before any transfer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file holding ID and API_KEY (default: .env)")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "feed API base url (overrides config and RITANI_API_URL)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.EnvFile = &envFile
	cli.APIURL = &apiURL
	cli.Verbose = &verbose
	cli.LogLevel = &logLevel

	cmd.AddCommand(
		cli.NewDownloadCmd(),
		cli.NewReportCmd(),
		cli.NewUploadCmd(),
		cli.NewLoginCmd(),
		cli.NewLogoutCmd(),
		cli.NewVerifyCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
