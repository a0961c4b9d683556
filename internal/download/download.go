package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries  = 10
	backoffBase = 1 * time.Second
	backoffCap  = 30 * time.Second
)

const copyChunkSize = 128 * 1024

// Fetch downloads url to dest. If the server supports byte ranges, an
// existing partial file at dest is resumed instead of restarted, including
// across the retry loop. When expectedSHA256 is non-empty the completed file
// is verified and deleted on mismatch. sink may be nil.
func Fetch(ctx context.Context, url, dest, expectedSHA256 string, sink Sink) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	client := newClient()
	supportsRange, totalSize := probe(ctx, client, url)

	backoff := backoffBase
	for attempt := 1; ; attempt++ {
		err := fetchOnce(ctx, client, url, dest, supportsRange, totalSize, sink)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Without range support a retry would restart from byte zero with no
		// way to make progress past a flaky link; fail instead.
		if !supportsRange {
			return err
		}
		if attempt >= maxRetries {
			return fmt.Errorf("download failed after %d attempts: %w", maxRetries, err)
		}

		logrus.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": backoff,
		}).Warn("download interrupted, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}

	if expectedSHA256 != "" {
		if err := VerifySHA256(dest, expectedSHA256); err != nil {
			os.Remove(dest)
			return err
		}
	}
	return nil
}

// probe asks the server whether it supports range requests and how large the
// resource is. Probe failures are not fatal: the download falls back to a
// plain full-body GET.
func probe(ctx context.Context, client *http.Client, url string) (supportsRange bool, totalSize int64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, -1
	}
	setRequestHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("range probe failed, downloading without resume")
		return false, -1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, -1
	}
	return resp.Header.Get("Accept-Ranges") == "bytes", resp.ContentLength
}

func fetchOnce(ctx context.Context, client *http.Client, url, dest string, supportsRange bool, totalSize int64, sink Sink) error {
	var offset int64
	if supportsRange {
		if info, err := os.Stat(dest); err == nil {
			offset = info.Size()
		}
	}
	if totalSize > 0 && offset == totalSize {
		newTracker(sink, offset, totalSize).finish()
		return nil
	}
	if totalSize > 0 && offset > totalSize {
		// The partial file cannot belong to this resource; start over.
		offset = 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	setRequestHeaders(req)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Resuming at offset.
	case http.StatusOK:
		// Full body regardless of the range we asked for.
		offset = 0
	default:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(dest, flags, 0640)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}

	total := totalSize
	if total <= 0 && resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}
	tr := newTracker(sink, offset, total)

	copyErr := copyBody(ctx, f, resp.Body, tr)

	// Durability before the retry loop or checksum sees the file: everything
	// received so far must actually be on disk.
	if err := f.Sync(); err != nil && copyErr == nil {
		copyErr = fmt.Errorf("failed to sync destination: %w", err)
	}
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = fmt.Errorf("failed to close destination: %w", err)
	}
	if copyErr != nil {
		return copyErr
	}

	tr.finish()
	return nil
}

// copyBody streams the response body in bounded chunks, checking for
// cancellation between chunks so a multi-gigabyte transfer stays
// interruptible.
func copyBody(ctx context.Context, dst io.Writer, src io.Reader, tr *tracker) error {
	buf := make([]byte, copyChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write chunk: %w", writeErr)
			}
			tr.advance(int64(n))
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read body: %w", readErr)
		}
	}
}
