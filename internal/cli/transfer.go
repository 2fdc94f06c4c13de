package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/glorpus-work/ritani-feeds/pkg/feed"
	"github.com/spf13/cobra"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	var (
		report    bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "download " + productUsage(),
		Short: "Download a product feed",
		Long: `Download the current feed of a product line as downloaded-<product>.csv.
With --report the processing report of the last uploaded feed is fetched instead.
An existing file of the same name is renamed with a timestamp, never overwritten.`,
		Example: `  ritani-feeds download diamonds
  ritani-feeds download g --report --output-dir ./feeds`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := feed.DownloadFeed
			if report {
				op = feed.DownloadReport
			}
			return runDownload(cmd, op, args[0], outputDir)
		},
	}

	cmd.Flags().BoolVar(&report, "report", false, "Download the report instead of the feed")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to write to (defaults to config)")

	return cmd
}

// NewReportCmd creates the report command, shorthand for download --report.
func NewReportCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "report " + productUsage(),
		Short: "Download the report for a product feed",
		Long:  "Download the report of a product line as downloaded-<product>-report.csv.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, feed.DownloadReport, args[0], outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to write to (defaults to config)")

	return cmd
}

// NewUploadCmd creates the upload command.
func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload " + productUsage() + " FILE",
		Short: "Upload a product feed",
		Long: `Upload a CSV feed for a product line. The API hands out a pre-signed url
which the file is then sent to.`,
		Example: "  ritani-feeds upload diamonds ./diamonds.csv",
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args[0], args[1])
		},
	}

	return cmd
}

// productUsage names the accepted product arguments, e.g. "diamonds|gemstones".
func productUsage() string {
	names := make([]string, 0, len(feed.Products()))
	for _, p := range feed.Products() {
		names = append(names, p.String())
	}
	return strings.Join(names, "|")
}

// exactArgs is cobra.ExactArgs that also prints usage, since the root
// command silences it for every other kind of failure.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(cmd, fmt.Errorf("%w: %w", errors.ErrInvalidArguments, err))
		}
		return nil
	}
}

func usageError(cmd *cobra.Command, err error) error {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return err
}

// resolveIntent turns the positional arguments into a validated intent.
func resolveIntent(cmd *cobra.Command, op feed.Operation, productArg, filePath string) (feed.Intent, error) {
	product, err := feed.ParseProduct(productArg)
	if err != nil {
		return feed.Intent{}, usageError(cmd, err)
	}
	intent := feed.Intent{Product: product, Operation: op, FilePath: filePath}
	if err := intent.Validate(); err != nil {
		return feed.Intent{}, usageError(cmd, err)
	}
	return intent, nil
}

func runDownload(cmd *cobra.Command, op feed.Operation, productArg, outputDir string) error {
	intent, err := resolveIntent(cmd, op, productArg, "")
	if err != nil {
		return err
	}

	cfg, err := prepare()
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.Settings.OutputDir = outputDir
	}

	ctx := commandContext(cmd)
	hc := newHTTPClient(cfg)
	creds, err := newAcquirer(cmd, cfg, hc).Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s %s: %w", intent.Operation, intent.Product, err)
	}

	client, err := feed.NewClient(hc, cfg.Settings.APIURL, feed.Options{OutputDir: cfg.Settings.OutputDir})
	if err != nil {
		return err
	}

	report := intent.Operation == feed.DownloadReport
	res, err := client.Download(ctx, creds, intent.Product, report)
	if err != nil {
		return err
	}

	kind := "feed"
	if report {
		kind = "report"
	}
	logger.Success("download finished", logger.Fields{"path": res.Path, "bytes": res.Bytes})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s %s as %s successfully\n", intent.Product, kind, res.Path)
	return nil
}

func runUpload(cmd *cobra.Command, productArg, filePath string) error {
	intent, err := resolveIntent(cmd, feed.UploadFeed, productArg, filePath)
	if err != nil {
		return err
	}

	cfg, err := prepare()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	hc := newHTTPClient(cfg)
	creds, err := newAcquirer(cmd, cfg, hc).Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%s %s: %w", intent.Operation, intent.Product, err)
	}

	client, err := feed.NewClient(hc, cfg.Settings.APIURL, feed.Options{})
	if err != nil {
		return err
	}

	res, err := client.Upload(ctx, creds, intent.Product, intent.FilePath)
	if err != nil {
		return err
	}

	logger.Success("upload finished", logger.Fields{"path": res.Path, "bytes": res.Bytes})
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s feed %s successfully\n", intent.Product, res.Path)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
