// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download streams paper PDFs to disk in fixed-size chunks,
// reporting per-chunk progress so callers can drive progress displays
// and cancel between chunks.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// defaultChunkSize is the copy buffer size when the config leaves it unset.
const defaultChunkSize = 8192

// StatusError reports a non-200 response: the request itself completed
// but the server signaled failure. Callers distinguish it from transport
// errors with errors.As.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// IsServerFailure reports whether err is a server-signaled failure
// rather than an exception during transfer.
func IsServerFailure(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// ChunkFunc observes each chunk written. written is the cumulative byte
// count; total is the content-length, or -1 when the server did not
// advertise one. Returning a non-nil error aborts the transfer with that
// error; this is the cooperative cancellation checkpoint between chunks.
type ChunkFunc func(written, total int64) error

// File fetches url into destPath. The body is streamed through a
// chunk-sized buffer into a temporary file in the destination directory,
// renamed into place on success so partial downloads never appear at
// destPath. onChunk, when non-nil, fires after each chunk write.
func File(ctx context.Context, client *http.Client, url, destPath string, cfg types.DownloadConfig, onChunk ChunkFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, URL: url}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	copyErr := copyChunks(resp, tmpFile, cfg.ChunkSize, onChunk)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return copyErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// copyChunks copies the response body to w in chunkSize pieces, invoking
// onChunk after each write.
func copyChunks(resp *http.Response, w io.Writer, chunkSize int, onChunk ChunkFunc) error {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	total := resp.ContentLength // -1 when absent
	buf := make([]byte, chunkSize)
	var written int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return fmt.Errorf("writing download: %w", err)
			}
			written += int64(n)
			if onChunk != nil {
				if err := onChunk(written, total); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading download: %w", readErr)
		}
	}
}

// WriteMetadata writes a YAML sidecar describing the downloaded paper.
func WriteMetadata(paper types.Paper, path string) error {
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// MetadataPath returns the sidecar path next to a PDF destination
// (e.g. "papers/2301.07041.pdf" → "papers/2301.07041.yaml").
func MetadataPath(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	return pdfPath[:len(pdfPath)-len(ext)] + ".yaml"
}
