//go:build integration

package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glorpus-work/ritani-feeds/pkg/config"
	"github.com/glorpus-work/ritani-feeds/pkg/credentials"
	"github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/glorpus-work/ritani-feeds/test/testutil"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVendorID = "vendor-42"
	testAPIKey   = "secret-key"
)

// harness is one isolated ritani-feeds setup against a fake feed API.
type harness struct {
	t          *testing.T
	server     *testutil.FeedServer
	configPath string
	envFile    string
	outputDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{credentials.EnvVendorID, credentials.EnvAPIKey} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(config.EnvAPIURL, "")

	root := t.TempDir()
	return &harness{
		t:          t,
		server:     testutil.NewFeedServer(t, testVendorID, testAPIKey),
		configPath: filepath.Join(root, "config", "config.yaml"),
		envFile:    filepath.Join(root, ".env"),
		outputDir:  filepath.Join(root, "out"),
	}
}

func (h *harness) storeCredentials() {
	h.t.Helper()
	content := "ID=" + testVendorID + "\nAPI_KEY=" + testAPIKey + "\n"
	require.NoError(h.t, os.WriteFile(h.envFile, []byte(content), 0o600))
}

// run executes the CLI with the harness globals and stdin as terminal input.
func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	globals := []string{
		"--config", h.configPath,
		"--env-file", h.envFile,
		"--api-url", h.server.APIURL(),
	}

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append(args, globals...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (h *harness) signedRequests() int {
	n := 0
	for _, r := range h.server.Requests() {
		if strings.HasPrefix(r.Path, "/signed/") {
			n++
		}
	}
	return n
}

func TestDownloadFeed(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()
	payload := []byte("sku,carat\n")
	h.server.SetFeed("diamonds", false, payload)

	out, _, err := h.run("", "download", "diamonds", "--output-dir", h.outputDir)
	require.NoError(t, err)

	dest := filepath.Join(h.outputDir, "downloaded-diamonds.csv")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Len(t, data, 10)
	assert.Contains(t, out, "Downloaded diamonds feed as "+dest)

	requests := h.server.Requests()
	require.Len(t, requests, 1, "stored credentials are not verified again")
	assert.Equal(t, "Bearer "+testVendorID+":"+testAPIKey, requests[0].Authorization)
}

func TestDownloadFeed_KeepsPreviousFile(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()

	h.server.SetFeed("gemstones", false, []byte("first\n"))
	_, _, err := h.run("", "download", "g", "--output-dir", h.outputDir)
	require.NoError(t, err)

	h.server.SetFeed("gemstones", false, []byte("second\n"))
	_, _, err = h.run("", "download", "g", "--output-dir", h.outputDir)
	require.NoError(t, err)

	current, err := os.ReadFile(filepath.Join(h.outputDir, "downloaded-gemstones.csv"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(current))

	rotated, err := filepath.Glob(filepath.Join(h.outputDir, "downloaded-gemstones-*.csv"))
	require.NoError(t, err)
	require.Len(t, rotated, 1)
	previous, err := os.ReadFile(rotated[0])
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(previous))
}

func TestDownloadReport_NotAvailable(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()

	_, _, err := h.run("", "report", "gemstones", "--output-dir", h.outputDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available yet")
	assert.Contains(t, err.Error(), "gemstones report")
	assert.NoDirExists(t, h.outputDir, "nothing is written for a failed download")

	requests := h.server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "report=true", requests[0].RawQuery)
}

func TestDownloadReport_ViaFlag(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()
	h.server.SetFeed("diamonds", true, []byte("row,status\n"))

	out, _, err := h.run("", "download", "diamonds", "--report", "--output-dir", h.outputDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(h.outputDir, "downloaded-diamonds-report.csv"))
	assert.Contains(t, out, "Downloaded diamonds report")
}

func TestUploadFeed(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()
	file := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n\n"), 0o644))

	out, _, err := h.run("", "upload", "diamonds", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded diamonds feed "+file)

	body, ok := h.server.Upload("diamonds")
	require.True(t, ok)
	assert.Equal(t, "a,b\n\n", string(body))

	requests := h.server.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPut, requests[0].Method)
	assert.Equal(t, testutil.APIPath+"/diamonds", requests[0].Path)
	assert.Equal(t, "url=true", requests[0].RawQuery)

	signed := requests[1]
	assert.Equal(t, http.MethodPut, signed.Method)
	assert.Equal(t, int64(5), signed.ContentLength)
	assert.Equal(t, "text/csv", signed.ContentType)
	assert.Empty(t, signed.Authorization)
}

func TestUploadFeed_TicketWithoutURL(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()
	h.server.SetTicketBody("{}")
	file := filepath.Join(t.TempDir(), "feed.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0o644))

	_, _, err := h.run("", "upload", "gemstones", file)
	require.Error(t, err)
	assert.Zero(t, h.signedRequests(), "no request may reach a signed url")
	_, ok := h.server.Upload("gemstones")
	assert.False(t, ok)
}

func TestUploadFeed_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		route string
	}{
		{name: "ticket refused", route: testutil.RouteTicket},
		{name: "signed upload refused", route: testutil.RouteUpload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.storeCredentials()
			h.server.SetStatus(tt.route, http.StatusForbidden)
			file := filepath.Join(t.TempDir(), "feed.csv")
			require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0o644))

			_, _, err := h.run("", "upload", "diamonds", file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "HTTP 403")
		})
	}
}

func TestUploadFeed_MissingFileMakesNoRequest(t *testing.T) {
	h := newHarness(t)
	h.storeCredentials()

	_, stderr, err := h.run("", "upload", "diamonds", filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
	assert.Contains(t, stderr, "Usage:")
	assert.Empty(t, h.server.Requests())
}

func TestPromptedCredentials(t *testing.T) {
	h := newHarness(t)
	h.server.SetFeed("diamonds", false, []byte("sku\n"))

	stdin := "wrong\nwrong\n" + testVendorID + "\n" + testAPIKey + "\ny\n"
	_, stderr, err := h.run(stdin, "download", "d", "--output-dir", h.outputDir)
	require.NoError(t, err)

	assert.Contains(t, stderr, credentials.VendorIDPrompt)
	assert.Contains(t, stderr, credentials.APIKeyPrompt)
	assert.Equal(t, 2, h.server.CountRequests(http.MethodGet, testutil.APIPath+"/verify"))

	values, err := godotenv.Read(h.envFile)
	require.NoError(t, err)
	assert.Equal(t, testVendorID, values[credentials.EnvVendorID])
	assert.Equal(t, testAPIKey, values[credentials.EnvAPIKey])
}

func TestPromptedCredentials_GiveUp(t *testing.T) {
	h := newHarness(t)
	h.server.SetFeed("diamonds", false, []byte("sku\n"))

	stdin := strings.Repeat("wrong\nwrong\n", credentials.MaxAttempts)
	_, _, err := h.run(stdin, "download", "diamonds", "--output-dir", h.outputDir)
	assert.ErrorIs(t, err, errors.ErrAuthenticationFailed)

	assert.Equal(t, credentials.MaxAttempts, h.server.CountRequests(http.MethodGet, testutil.APIPath+"/verify"))
	assert.Zero(t, h.server.CountRequests(http.MethodGet, testutil.APIPath+"/diamonds"), "no transfer after failed authentication")
	assert.NoFileExists(t, h.envFile)
}

func TestLoginVerifyLogout(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.envFile, []byte("OTHER=keep\n"), 0o600))

	_, _, err := h.run("", "verify")
	assert.ErrorIs(t, err, errors.ErrMissingCredentials)

	out, _, err := h.run(testVendorID+"\n"+testAPIKey+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "saved to "+h.envFile)

	// login loaded nothing into the environment; verify reads the file.
	out, _, err = h.run("", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials for vendor "+testVendorID+" are valid")

	out, _, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed credentials for vendor "+testVendorID)

	values, err := godotenv.Read(h.envFile)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"OTHER": "keep"}, values)
}

func TestVerify_RejectedCredentials(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(h.envFile, []byte("ID=someone\nAPI_KEY=else\n"), 0o600))

	_, _, err := h.run("", "verify")
	assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
}
