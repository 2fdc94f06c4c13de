package cli

import (
	"fmt"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/credentials"
	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store vendor credentials",
		Long: `Ask for the ritani vendor id and api key, check them against the API
and store them in the env file.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}

	return cmd
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored vendor credentials",
		Long:  "Remove ID and API_KEY from the env file. Other entries in the file are kept.",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}

	return cmd
}

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check stored vendor credentials",
		Long:  "Check the credentials from the environment or env file against the API without prompting.",
		Args:  cobra.NoArgs,
		RunE:  runVerify,
	}

	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := prepare()
	if err != nil {
		return err
	}

	hc := newHTTPClient(cfg)
	creds, err := newAcquirer(cmd, cfg, hc).Login(commandContext(cmd), credentials.SaveAlways)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for vendor %s saved to %s\n", creds.VendorID, cfg.Settings.EnvFile)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cfg, err := prepare()
	if err != nil {
		return err
	}

	store := credentials.NewStore(cfg.Settings.EnvFile)
	previous, readErr := store.Read()
	removed, err := store.Remove()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if !removed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No credentials stored in %s\n", store.Path())
		return nil
	}
	logger.Success("credentials removed", logger.Fields{"path": store.Path()})
	if readErr != nil {
		// The file held an incomplete pair.
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials from %s\n", store.Path())
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for vendor %s from %s\n", previous.VendorID, store.Path())
	return nil
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := prepare()
	if err != nil {
		return err
	}

	store := credentials.NewStore(cfg.Settings.EnvFile)
	if err := store.Load(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	creds, ok := credentials.FromEnv()
	if !ok {
		return fmt.Errorf("verify: %w (set ID and API_KEY or run login)", errors.ErrMissingCredentials)
	}

	verifier := credentials.NewVerifier(newHTTPClient(cfg), cfg.Settings.APIURL)
	if err := verifier.Verify(commandContext(cmd), creds); err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for vendor %s are valid\n", creds.VendorID)
	return nil
}
