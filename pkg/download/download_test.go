package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/playertoolkit/pkg/retry"
)

func fastClient() *Client {
	c := New(5*time.Second, 3)
	c.Retry = retry.RetryConfig{MaxRetries: 3, InitialInterval: time.Millisecond, Multiplier: 1}
	return c
}

func TestFetchWritesFileAndReportsProgress(t *testing.T) {
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "sub", "setup.exe")
	var last int
	err := fastClient().Fetch(context.Background(), srv.URL+"/setup.exe", dest, func(pct int, read, total int64) {
		assert.GreaterOrEqual(t, pct, last)
		last = pct
	})
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, 100, last)
	assert.NoFileExists(t, dest+".part")

	sum := sha256.Sum256(payload)
	assert.NoError(t, Verify(dest, hex.EncodeToString(sum[:])))
	assert.ErrorIs(t, Verify(dest, "deadbeef"), ErrChecksumMismatch)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.msi")
	require.NoError(t, fastClient().Fetch(context.Background(), srv.URL, dest, nil))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.exe")
	err := fastClient().Fetch(context.Background(), srv.URL, dest, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.NoFileExists(t, dest)
}

func TestFetchEmptyURL(t *testing.T) {
	assert.Error(t, fastClient().Fetch(context.Background(), "", filepath.Join(t.TempDir(), "x"), nil))
}

func TestFetchSlowBodyOutlastsResponseTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "8")
		_, _ = w.Write([]byte("part"))
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("rest"))
	}))
	defer srv.Close()

	c := New(100*time.Millisecond, 1)
	c.Retry = retry.RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond, Multiplier: 1}
	dest := filepath.Join(t.TempDir(), "big.exe")
	require.NoError(t, c.Fetch(context.Background(), srv.URL, dest, nil))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "partrest", string(got))
}

func TestFetchResponseHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(50*time.Millisecond, 1)
	c.Retry = retry.RetryConfig{MaxRetries: 1, InitialInterval: time.Millisecond, Multiplier: 1}
	err := c.Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.exe"), nil)
	assert.Error(t, err)
}
