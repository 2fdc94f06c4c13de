// Package testutil provides a fake feed API for tests that drive ritani-feeds
// end to end.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// APIPath is where the fake API is mounted; FeedServer.APIURL includes it.
const APIPath = "/api/v1"

// Routes whose answer can be overridden with SetStatus.
const (
	RouteVerify   = "verify"
	RouteDownload = "download"
	RouteTicket   = "ticket"
	RouteUpload   = "upload"
)

// Request is what the server saw of one request.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	ContentLength int64
	Body          []byte
}

// FeedServer imitates the vendor feed API: bearer protected downloads and
// ticket requests, plus an unauthenticated signed upload location.
type FeedServer struct {
	server *httptest.Server
	token  string

	mu         sync.Mutex
	feeds      map[string][]byte
	statuses   map[string]int
	ticketBody *string
	uploads    map[string][]byte
	requests   []Request
}

// NewFeedServer starts a server accepting "Bearer vendorID:apiKey". It is
// closed when the test ends.
func NewFeedServer(t *testing.T, vendorID, apiKey string) *FeedServer {
	t.Helper()
	s := &FeedServer{
		token:    "Bearer " + vendorID + ":" + apiKey,
		feeds:    map[string][]byte{},
		statuses: map[string]int{},
		uploads:  map[string][]byte{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+APIPath+"/verify", s.authenticated(RouteVerify, s.handleVerify))
	mux.HandleFunc("GET "+APIPath+"/{product}", s.authenticated(RouteDownload, s.handleDownload))
	mux.HandleFunc("PUT "+APIPath+"/{product}", s.authenticated(RouteTicket, s.handleTicket))
	mux.HandleFunc("PUT /signed/{product}/{id}", s.handleUpload)

	s.server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.server.Close)
	return s
}

// URL is the server root.
func (s *FeedServer) URL() string { return s.server.URL }

// APIURL is the base url to configure the client with.
func (s *FeedServer) APIURL() string { return s.server.URL + APIPath }

// SetFeed makes body available for download.
func (s *FeedServer) SetFeed(product string, report bool, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[feedKey(product, report)] = body
}

// SetStatus forces route to answer with status.
func (s *FeedServer) SetStatus(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[route] = status
}

// SetTicketBody replaces the JSON normally returned by a ticket request.
func (s *FeedServer) SetTicketBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticketBody = &body
}

// Upload returns the last body uploaded for product.
func (s *FeedServer) Upload(product string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.uploads[product]
	return body, ok
}

// Requests returns every request received so far, in order.
func (s *FeedServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests returns how many requests were made with method to path.
func (s *FeedServer) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func feedKey(product string, report bool) string {
	if report {
		return product + "?report"
	}
	return product
}

func (s *FeedServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			ContentLength: r.ContentLength,
			Body:          body,
		})
		s.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// authenticated rejects requests without the expected bearer token and
// applies status overrides for route.
func (s *FeedServer) authenticated(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if status, ok := s.status(route); ok {
			w.WriteHeader(status)
			return
		}
		next(w, r)
	}
}

func (s *FeedServer) status(route string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[route]
	return status, ok
}

func (s *FeedServer) handleVerify(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *FeedServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	key := feedKey(r.PathValue("product"), r.URL.Query().Get("report") == "true")

	s.mu.Lock()
	body, ok := s.feeds[key]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not generated yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write(body)
}

func (s *FeedServer) handleTicket(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("url") != "true" {
		http.Error(w, "missing url=true", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	override := s.ticketBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if override != nil {
		_, _ = io.WriteString(w, *override)
		return
	}
	ticket := map[string]string{
		"url": s.server.URL + "/signed/" + r.PathValue("product") + "/" + uuid.NewString(),
	}
	_ = json.NewEncoder(w).Encode(ticket)
}

// handleUpload accepts the file at a signed location. The location itself is
// the credential, so a request carrying an Authorization header is refused.
func (s *FeedServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.status(RouteUpload); ok {
		w.WriteHeader(status)
		return
	}
	if r.Header.Get("Authorization") != "" {
		http.Error(w, "only one auth mechanism allowed", http.StatusBadRequest)
		return
	}
	if r.Header.Get("Content-Type") != "text/csv" {
		http.Error(w, "content type must be text/csv", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || int64(len(body)) != r.ContentLength {
		http.Error(w, "content length mismatch", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.uploads[r.PathValue("product")] = body
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}
