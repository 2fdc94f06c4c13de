// Package auth provides the vendor credentials and the way they are applied to
// HTTP requests against the feed API.
package auth

import (
	"net/http"
	"strings"

	"github.com/glorpus-work/ritani-feeds/pkg/errors"
)

// Authenticator defines the interface for applying authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request) error
	Type() Type
}

// Type represents the type of authentication.
type Type string

// Authentication types.
const (
	// BearerAuthType represents Bearer token authentication.
	BearerAuthType Type = "bearer"
)

// Credentials identify a vendor against the feed API. They are obtained once per
// invocation and never modified afterwards.
type Credentials struct {
	VendorID string
	APIKey   string
}

// Validate reports whether both parts of the credentials are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.VendorID) == "" || strings.TrimSpace(c.APIKey) == "" {
		return errors.ErrMissingCredentials
	}
	return nil
}

// Token returns the bearer token, "vendorId:apiKey".
func (c Credentials) Token() string {
	return c.VendorID + ":" + c.APIKey
}

// Bearer converts the credentials into a bearer authenticator.
func (c Credentials) Bearer() BearerAuth {
	return BearerAuth{Token: c.Token()}
}

// BearerAuth represents Bearer token authentication.
type BearerAuth struct {
	Token string
}

// Apply adds a Bearer token to the Authorization header of the HTTP request.
func (b BearerAuth) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// Type returns the authentication type (BearerAuthType).
func (b BearerAuth) Type() Type { return BearerAuthType }
