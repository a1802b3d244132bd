// pkg/download/download.go - fetches installers that are not shipped in the programs folder.

package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
	"github.com/windowsadmins/playertoolkit/pkg/progress"
	"github.com/windowsadmins/playertoolkit/pkg/retry"
)

// ErrChecksumMismatch is returned when a downloaded file does not match its expected hash.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Client downloads files over HTTP(S).
type Client struct {
	http  *resty.Client
	Retry retry.RetryConfig
}

// New returns a Client. responseTimeout bounds connecting and waiting for
// the response headers of each attempt. The body transfer is bounded only
// by the context passed to Fetch.
func New(responseTimeout time.Duration, retries int) *Client {
	cfg := retry.DefaultConfig()
	if retries > 0 {
		cfg.MaxRetries = retries
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: responseTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   responseTimeout,
		ResponseHeaderTimeout: responseTimeout,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		http:  resty.New().SetTransport(transport).SetHeader("User-Agent", "playertoolkit"),
		Retry: cfg,
	}
}

// Fetch downloads url to dest, reporting byte progress through onProgress.
// The body is streamed to dest+".part" and renamed on success, so dest
// never holds a truncated file.
func (c *Client) Fetch(ctx context.Context, url, dest string, onProgress progress.Func) error {
	if url == "" {
		return fmt.Errorf("invalid parameters: url cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory structure: %w", err)
	}

	return retry.Retry(ctx, c.Retry, func(attempt int) error {
		logging.Info("Starting download", "url", url, "destination", dest, "attempt", attempt)
		return c.fetchOnce(ctx, url, dest, onProgress)
	})
}

func (c *Client) fetchOnce(ctx context.Context, url, dest string, onProgress progress.Func) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("file not found (404): %s", url))
	case code >= 400 && code < 500:
		return retry.Permanent(fmt.Errorf("unexpected HTTP status code: %d", code))
	default:
		return fmt.Errorf("unexpected HTTP status code: %d", code)
	}

	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to open destination file: %w", err))
	}

	var reader io.Reader = body
	if onProgress != nil {
		reader = progress.NewReader(body, resp.RawResponse.ContentLength, onProgress)
	}
	n, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(part)
		if copyErr == nil {
			copyErr = closeErr
		}
		return fmt.Errorf("failed to write downloaded data: %w", copyErr)
	}

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return retry.Permanent(fmt.Errorf("failed to move download into place: %w", err))
	}
	logging.Info("Download completed successfully", "file", dest, "size", progress.FormatBytes(n))
	return nil
}

// Verify checks if the given file matches the expected sha256 hash.
func Verify(file string, expectedHash string) error {
	actual, err := calculateHash(file)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, strings.TrimSpace(expectedHash)) {
		return fmt.Errorf("%w: %s has sha256 %s, expected %s", ErrChecksumMismatch, filepath.Base(file), actual, expectedHash)
	}
	return nil
}

func calculateHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
