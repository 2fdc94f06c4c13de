package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name       string
		userAgent  string
		expectedUA string
	}{
		{name: "default user agent", expectedUA: "ritani-feeds"},
		{name: "custom user agent", userAgent: "ritani-feeds/1.2.0", expectedUA: "ritani-feeds/1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewHTTPClient(time.Second, tt.userAgent)
			require.NotNil(t, c)
			assert.Equal(t, tt.expectedUA, c.UserAgent())
			hc, ok := c.doer.(*http.Client)
			require.True(t, ok)
			assert.Equal(t, time.Second, hc.Timeout)
		})
	}
}

func TestNewAPIRequest_Headers(t *testing.T) {
	c := NewClient(http.DefaultClient, "ritani-feeds/test")
	creds := auth.Credentials{VendorID: "v1", APIKey: "k1"}

	req, err := c.NewAPIRequest(context.Background(), http.MethodGet, "http://example.com/verify", nil, creds.Bearer())
	require.NoError(t, err)

	assert.Equal(t, "Bearer v1:k1", req.Header.Get("Authorization"))
	assert.Equal(t, "ritani-feeds/test", req.Header.Get("User-Agent"))
	_, err = uuid.Parse(req.Header.Get(RequestIDHeader))
	assert.NoError(t, err, "request id should be a uuid")
}

func TestNewAPIRequest_UniqueIDs(t *testing.T) {
	c := NewClient(http.DefaultClient, "")
	first, err := c.NewAPIRequest(context.Background(), http.MethodGet, "http://example.com", nil, nil)
	require.NoError(t, err)
	second, err := c.NewAPIRequest(context.Background(), http.MethodGet, "http://example.com", nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Header.Get(RequestIDHeader), second.Header.Get(RequestIDHeader))
	assert.Empty(t, first.Header.Get("Authorization"))
}

func TestNewRequest_NoCredentials(t *testing.T) {
	c := NewClient(http.DefaultClient, "ritani-feeds/test")
	req, err := c.NewRequest(context.Background(), http.MethodPut, "http://example.com/signed", nil)
	require.NoError(t, err)

	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get(RequestIDHeader))
	assert.Equal(t, http.NoBody, req.Body)
}

func TestNewRequest_InvalidURL(t *testing.T) {
	c := NewClient(http.DefaultClient, "")
	_, err := c.NewRequest(context.Background(), http.MethodGet, "://bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")
}

func TestDo_FollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/diamonds" {
			http.Redirect(w, r, "/storage/diamonds.csv", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("sku,carat\n"))
	}))
	defer server.Close()

	c := NewHTTPClient(0, "")
	req, err := c.NewAPIRequest(context.Background(), http.MethodGet, server.URL+"/diamonds", nil, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer DrainAndClose(resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/storage/diamonds.csv", resp.Request.URL.Path)
}

func TestIsSuccess(t *testing.T) {
	tests := map[int]bool{
		http.StatusOK:                  true,
		http.StatusCreated:             true,
		http.StatusNoContent:           true,
		299:                            true,
		http.StatusMultipleChoices:     false,
		http.StatusUnauthorized:        false,
		http.StatusNotFound:            false,
		http.StatusInternalServerError: false,
		199:                            false,
	}
	for status, want := range tests {
		assert.Equal(t, want, IsSuccess(status), "status %d", status)
	}
}
