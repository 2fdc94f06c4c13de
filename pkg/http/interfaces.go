//go:generate mockgen -destination=mocks/http.go . Doer
package http

import "net/http"

// Doer sends a single HTTP request and returns its response. *http.Client
// satisfies it; tests substitute a mock to observe every call.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
