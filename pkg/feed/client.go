// Package feed transfers CSV feeds between the local disk and the vendor feed
// API: downloads of generated feeds and reports, and the two-phase upload
// through a pre-signed url.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/ritani-feeds/internal/logger"
	"github.com/glorpus-work/ritani-feeds/pkg/auth"
	pkgerrors "github.com/glorpus-work/ritani-feeds/pkg/errors"
	"github.com/glorpus-work/ritani-feeds/pkg/fsutil"
	rfhttp "github.com/glorpus-work/ritani-feeds/pkg/http"
)

// maxTicketBody caps how much of a ticket response is decoded.
const maxTicketBody = 1 << 20

// Options control where downloads land.
type Options struct {
	// OutputDir receives downloaded files; empty means the working directory.
	OutputDir string
	// Now supplies the timestamp used when rotating an existing download.
	Now func() time.Time
}

// Client performs feed transfers against one API base url.
type Client struct {
	http      *rfhttp.Client
	baseURL   *url.URL
	outputDir string
	now       func() time.Time
}

// Result describes a finished transfer.
type Result struct {
	// Path is the downloaded file or the uploaded file.
	Path string
	// Rotated is the name the previous download was moved to, if there was one.
	Rotated string
	// Bytes is the number of bytes written to disk or sent.
	Bytes int64
}

// Ticket is the pre-signed upload location handed out by the API. It is used
// once, right after it is issued.
type Ticket struct {
	URL string `json:"url"`
}

// NewClient creates a transfer client for the API at baseURL.
func NewClient(httpClient *rfhttp.Client, baseURL string, opts Options) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidAPIURL, baseURL)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		http:      httpClient,
		baseURL:   parsed,
		outputDir: opts.OutputDir,
		now:       opts.Now,
	}, nil
}

// Endpoint returns {base}/{product}, with query appended when non-empty.
func (c *Client) Endpoint(p Product, query url.Values) string {
	u := c.baseURL.JoinPath(string(p))
	u.RawQuery = query.Encode()
	return u.String()
}

// Destination returns the path a download of p is written to.
func (c *Client) Destination(p Product, report bool) string {
	return filepath.Join(c.outputDir, FileName(p, report))
}

// Download fetches the feed, or its report, for product p and streams it to
// Destination. A file already at the destination is renamed first, never
// overwritten. A non-2xx answer means the file is not generated yet and
// yields ErrNotReady without touching the disk.
func (c *Client) Download(ctx context.Context, creds auth.Credentials, p Product, report bool) (Result, error) {
	kind := kindOf(report)
	query := url.Values{}
	if report {
		query.Set("report", "true")
	}

	req, err := c.http.NewAPIRequest(ctx, http.MethodGet, c.Endpoint(p, query), nil, creds.Bearer())
	if err != nil {
		return Result{}, err
	}
	logger.Debug("requesting download", logger.Fields{
		"url":        req.URL.String(),
		"request_id": req.Header.Get(rfhttp.RequestIDHeader),
	})

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: %w: %w", p, kind, ErrRequestFailed, err)
	}
	body := resp.Body
	if body == nil {
		body = http.NoBody
	}
	defer func() { _ = body.Close() }()

	if !rfhttp.IsSuccess(resp.StatusCode) {
		return Result{}, fmt.Errorf("%s %s %w (HTTP %d)", p, kind, ErrNotReady, resp.StatusCode)
	}

	dest := c.Destination(p, report)
	if c.outputDir != "" {
		if err := fsutil.EnsureDir(c.outputDir); err != nil {
			return Result{}, fmt.Errorf("%s %s: %w: %w", p, kind, ErrWriteFailed, err)
		}
	}

	rotated, err := fsutil.RotateExisting(dest, c.now())
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: %w: %w", p, kind, ErrWriteFailed, err)
	}
	if rotated != "" {
		logger.Info("kept previous download", logger.Fields{"path": rotated})
	}

	written, err := writeFile(dest, body)
	if err != nil {
		return Result{Path: dest, Rotated: rotated, Bytes: written}, fmt.Errorf("%s %s to %s: %w", p, kind, dest, err)
	}

	return Result{Path: dest, Rotated: rotated, Bytes: written}, nil
}

// writeFile streams body into a new file at path. The result only counts as
// written once the data is synced and the file closed. A partial file is left
// in place on failure.
func writeFile(path string, body io.Reader) (int64, error) {
	f, err := fsutil.CreateFilePerm(path, fsutil.FileModeDefault)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	written, err := copyStream(f, body, make([]byte, StreamBufferSize))
	if err != nil {
		_ = f.Close()
		return written, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return written, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return written, nil
}

// Upload sends the local feed at path for product p: it asks the API for an
// upload url (RequestTicket) and then streams the file there (PutFile). The
// second request is never made when the first does not yield a url.
func (c *Client) Upload(ctx context.Context, creds auth.Credentials, p Product, path string) (Result, error) {
	if _, err := fsutil.FileSize(path); err != nil {
		return Result{}, err
	}

	ticket, err := c.RequestTicket(ctx, creds, p)
	if err != nil {
		return Result{}, err
	}

	sent, err := c.PutFile(ctx, ticket, path)
	if err != nil {
		return Result{Path: path}, fmt.Errorf("%s feed %s: %w", p, path, err)
	}
	return Result{Path: path, Bytes: sent}, nil
}

// RequestTicket performs phase one of an upload: an authenticated
// PUT {base}/{product}?url=true that must answer with JSON {"url": "..."}.
func (c *Client) RequestTicket(ctx context.Context, creds auth.Credentials, p Product) (Ticket, error) {
	query := url.Values{}
	query.Set("url", "true")

	req, err := c.http.NewAPIRequest(ctx, http.MethodPut, c.Endpoint(p, query), nil, creds.Bearer())
	if err != nil {
		return Ticket{}, err
	}
	logger.Debug("requesting upload url", logger.Fields{
		"url":        req.URL.String(),
		"request_id": req.Header.Get(rfhttp.RequestIDHeader),
	})

	resp, err := c.http.Do(req)
	if err != nil {
		return Ticket{}, fmt.Errorf("%s upload url: %w: %w", p, ErrRequestFailed, err)
	}
	defer rfhttp.DrainAndClose(resp)

	if !rfhttp.IsSuccess(resp.StatusCode) {
		return Ticket{}, fmt.Errorf("%s feed: %w (HTTP %d)", p, ErrTicketStatus, resp.StatusCode)
	}

	var ticket Ticket
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTicketBody)).Decode(&ticket); err != nil {
		return Ticket{}, fmt.Errorf("%s feed: %w: %w", p, ErrTicketDecode, err)
	}
	ticket.URL = strings.TrimSpace(ticket.URL)
	if ticket.URL == "" {
		return Ticket{}, fmt.Errorf("%s feed: %w", p, ErrTicketMissingURL)
	}
	target, err := url.Parse(ticket.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return Ticket{}, fmt.Errorf("%s feed: %w", p, ErrTicketInvalidURL)
	}

	return ticket, nil
}

// PutFile performs phase two of an upload: an unauthenticated PUT of the file
// at path to the ticket url. Content-Length is taken from the file system, not
// measured from the stream.
func (c *Client) PutFile(ctx context.Context, ticket Ticket, path string) (int64, error) {
	size, err := fsutil.FileSize(path)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	defer func() { _ = f.Close() }()

	var body io.Reader = f
	if size == 0 {
		// A zero ContentLength with a non-empty body would switch to chunked encoding.
		body = http.NoBody
	}

	req, err := c.http.NewRequest(ctx, http.MethodPut, ticket.URL, body)
	if err != nil {
		return 0, err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "text/csv")
	// Transports send req.ContentLength; the header keeps the value visible to a Doer.
	req.Header.Set("Content-Length", strconv.FormatInt(size, 10))
	logger.Debug("uploading feed", logger.Fields{"path": path, "bytes": size})

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer rfhttp.DrainAndClose(resp)

	if !rfhttp.IsSuccess(resp.StatusCode) {
		return 0, fmt.Errorf("%w (HTTP %d)", ErrUploadStatus, resp.StatusCode)
	}
	return size, nil
}
