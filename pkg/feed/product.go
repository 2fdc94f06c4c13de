package feed

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/glorpus-work/ritani-feeds/pkg/fsutil"
)

// Product is a product line served by the feed API. Its value doubles as the
// endpoint path segment.
type Product string

// Product lines.
const (
	Diamonds  Product = "diamonds"
	Gemstones Product = "gemstones"
)

// Products lists every supported product line.
func Products() []Product {
	return []Product{Diamonds, Gemstones}
}

// ParseProduct accepts a product line name or its one-letter alias.
func ParseProduct(name string) (Product, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "diamonds", "diamond", "d":
		return Diamonds, nil
	case "gemstones", "gemstone", "g":
		return Gemstones, nil
	default:
		return "", errors.ErrInvalidProductWithName(name)
	}
}

// String returns the product line name.
func (p Product) String() string { return string(p) }

// Operation is the transfer a single invocation performs.
type Operation int

// Operations.
const (
	DownloadFeed Operation = iota
	DownloadReport
	UploadFeed
)

// String returns a human readable name used in log lines.
func (o Operation) String() string {
	switch o {
	case DownloadFeed:
		return "download feed"
	case DownloadReport:
		return "download report"
	case UploadFeed:
		return "upload feed"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Intent is the resolved command line: what to transfer, for which product line.
type Intent struct {
	Product   Product
	Operation Operation
	// FilePath is the local feed to upload; only set for UploadFeed.
	FilePath string
}

// Validate checks the intent before any network access happens.
func (i Intent) Validate() error {
	if i.Product != Diamonds && i.Product != Gemstones {
		return errors.ErrInvalidProductWithName(string(i.Product))
	}
	switch i.Operation {
	case DownloadFeed, DownloadReport:
		if i.FilePath != "" {
			return fmt.Errorf("%w: %s takes no file argument", errors.ErrInvalidArguments, i.Operation)
		}
		return nil
	case UploadFeed:
		if strings.TrimSpace(i.FilePath) == "" {
			return fmt.Errorf("%w: %s requires a file path", errors.ErrInvalidArguments, i.Operation)
		}
		if _, err := fsutil.FileSize(i.FilePath); err != nil {
			return fmt.Errorf("feed filepath is not usable: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operation %d", errors.ErrInvalidArguments, int(i.Operation))
	}
}

// FileName returns the local name a downloaded feed or report is stored under.
func FileName(p Product, report bool) string {
	if report {
		return "downloaded-" + string(p) + "-report.csv"
	}
	return "downloaded-" + string(p) + ".csv"
}

func kindOf(report bool) string {
	if report {
		return "report"
	}
	return "feed"
}
