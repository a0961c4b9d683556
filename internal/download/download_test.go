package download

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeServer serves a fixed payload with byte-range support, like a release
// CDN would.
func rangeServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			return
		}

		body := payload
		status := http.StatusOK
		if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
			offset, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"), 10, 64)
			require.NoError(t, err)
			body = payload[offset:]
			status = http.StatusPartialContent
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	payload := make([]byte, n)
	_, err := rand.Read(payload)
	require.NoError(t, err)
	return payload
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestFetchDownloadsAndVerifies(t *testing.T) {
	payload := randomPayload(t, 64*1024)
	srv := rangeServer(t, payload)
	dest := filepath.Join(t.TempDir(), "model.gguf")

	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, sha256Hex(payload), nil)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchResumesPartialFile(t *testing.T) {
	payload := randomPayload(t, 64*1024)
	var sawRange atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			return
		}
		rangeHeader := r.Header.Get("Range")
		require.NotEmpty(t, rangeHeader, "resume must request a range")
		sawRange.Store(true)
		offset, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"), 10, 64)
		require.NoError(t, err)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[offset:])
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model.gguf")
	half := len(payload) / 2
	require.NoError(t, os.WriteFile(dest, payload[:half], 0640))

	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, sha256Hex(payload), nil)
	require.NoError(t, err)
	assert.True(t, sawRange.Load())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchRetriesInterruptedTransfer(t *testing.T) {
	payload := randomPayload(t, 64*1024)
	half := len(payload) / 2
	var gets atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			return
		}

		if gets.Add(1) == 1 {
			// Advertise the full length but cut the connection halfway.
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			w.WriteHeader(http.StatusOK)
			w.Write(payload[:half])
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			panic(http.ErrAbortHandler)
		}

		rangeHeader := r.Header.Get("Range")
		require.NotEmpty(t, rangeHeader, "retry must resume from the partial file")
		offset, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"), 10, 64)
		require.NoError(t, err)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(payload[offset:])
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, sha256Hex(payload), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gets.Load())

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchDoesNotRetryWithoutRangeSupport(t *testing.T) {
	payload := randomPayload(t, 64*1024)
	var gets atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
			return
		}
		gets.Add(1)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		w.Write(payload[:len(payload)/2])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model.gguf")
	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, "", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), gets.Load(), "a restart from byte zero cannot make progress")
}

func TestFetchDeletesFileOnChecksumMismatch(t *testing.T) {
	payload := randomPayload(t, 4096)
	srv := rangeServer(t, payload)
	dest := filepath.Join(t.TempDir(), "model.gguf")

	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, sha256Hex([]byte("other")), nil)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchAcceptsUppercaseChecksum(t *testing.T) {
	payload := randomPayload(t, 4096)
	srv := rangeServer(t, payload)
	dest := filepath.Join(t.TempDir(), "model.gguf")

	err := Fetch(context.Background(), srv.URL+"/model.gguf", dest, strings.ToUpper(sha256Hex(payload)), nil)
	require.NoError(t, err)
}

func TestFetchRespectsCancellation(t *testing.T) {
	payload := randomPayload(t, 4096)
	srv := rangeServer(t, payload)
	dest := filepath.Join(t.TempDir(), "model.gguf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Fetch(ctx, srv.URL+"/model.gguf", dest, "", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchOnceRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "model.gguf")
	err := fetchOnce(context.Background(), newClient(), srv.URL+"/missing", dest, false, -1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestProgressReportsAreThrottled(t *testing.T) {
	// Just over two strides, so exactly two threshold reports plus the
	// completion report are expected.
	payload := bytes.Repeat([]byte{0xAB}, int(2*progressStride)+256*1024)
	srv := rangeServer(t, payload)
	dest := filepath.Join(t.TempDir(), "blob.bin")

	var calls []int64
	sink := func(downloaded, total int64, message string) {
		calls = append(calls, downloaded)
		assert.Equal(t, int64(len(payload)), total)
		assert.Contains(t, message, "Downloaded")
	}

	err := Fetch(context.Background(), srv.URL+"/blob.bin", dest, "", sink)
	require.NoError(t, err)

	require.Len(t, calls, 3)
	assert.GreaterOrEqual(t, calls[0], progressStride)
	assert.GreaterOrEqual(t, calls[1], 2*progressStride)
	assert.Equal(t, int64(len(payload)), calls[2])
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	payload := []byte("content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "identity", r.Header.Get("Accept-Encoding"))
		fmt.Fprint(w, string(payload))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, Fetch(context.Background(), srv.URL+"/f.bin", dest, "", nil))
}
