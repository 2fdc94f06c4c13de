package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
	rfhttp "github.com/glorpus-work/ritani-feeds/pkg/http"
)

// Verifier checks credentials against GET {base}/verify.
type Verifier struct {
	http *rfhttp.Client
	url  string
}

// NewVerifier creates a verifier for the API at baseURL.
func NewVerifier(httpClient *rfhttp.Client, baseURL string) *Verifier {
	return &Verifier{
		http: httpClient,
		url:  strings.TrimRight(baseURL, "/") + "/verify",
	}
}

// Verify returns nil when the API accepts creds. Any non-2xx answer is
// reported as ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, creds auth.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	req, err := v.http.NewAPIRequest(ctx, http.MethodGet, v.url, nil, creds.Bearer())
	if err != nil {
		return err
	}
	logger.Debug("verifying credentials", logger.Fields{
		"vendor_id":  creds.VendorID,
		"request_id": req.Header.Get(rfhttp.RequestIDHeader),
	})

	resp, err := v.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "verify request failed")
	}
	defer rfhttp.DrainAndClose(resp)

	if !rfhttp.IsSuccess(resp.StatusCode) {
		return fmt.Errorf("%w (HTTP %d)", pkgerrors.ErrInvalidCredentials, resp.StatusCode)
	}
	return nil
}
