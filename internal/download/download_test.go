// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

func testCfg() types.DownloadConfig {
	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "test/0.1"},
		ChunkSize:  16,
	}
}

func TestFileWritesAndReportsChunks(t *testing.T) {
	payload := strings.Repeat("x", 100)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write([]byte(payload))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")

	var totals []int64
	var lastWritten int64
	err := File(context.Background(), ts.Client(), ts.URL, dest, testCfg(), func(written, total int64) error {
		if written <= lastWritten {
			t.Errorf("written not increasing: %d after %d", written, lastWritten)
		}
		lastWritten = written
		totals = append(totals, total)
		return nil
	})
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(data) != payload {
		t.Errorf("destination content mismatch: got %d bytes", len(data))
	}
	if lastWritten != int64(len(payload)) {
		t.Errorf("final written = %d, want %d", lastWritten, len(payload))
	}
	for _, total := range totals {
		if total != int64(len(payload)) {
			t.Errorf("total = %d, want %d", total, len(payload))
		}
	}
}

func TestFileUnknownContentLength(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte("chunked body"))
		flusher.Flush()
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")

	var sawUnknown bool
	err := File(context.Background(), ts.Client(), ts.URL, dest, testCfg(), func(_, total int64) error {
		if total < 0 {
			sawUnknown = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if !sawUnknown {
		t.Error("onChunk never saw total = -1 for a length-less response")
	}
}

func TestFileServerFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	err := File(context.Background(), ts.Client(), ts.URL, dest, testCfg(), nil)
	if !IsServerFailure(err) {
		t.Fatalf("File() error = %v, want StatusError", err)
	}

	var se *StatusError
	errors.As(err, &se)
	if se.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", se.Code)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file exists after server failure")
	}
}

func TestFileChunkAbort(t *testing.T) {
	payload := strings.Repeat("y", 1000)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	abort := errors.New("stop requested")

	err := File(context.Background(), ts.Client(), ts.URL, dest, testCfg(), func(written, _ int64) error {
		if written >= 16 {
			return abort
		}
		return nil
	})
	if !errors.Is(err, abort) {
		t.Fatalf("File() error = %v, want abort error", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("destination file exists after aborted transfer")
	}

	// No temp file left behind either.
	entries, _ := os.ReadDir(filepath.Dir(dest))
	if len(entries) != 0 {
		t.Errorf("leftover files after abort: %v", entries)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "2301.07041.pdf")

	metaPath := MetadataPath(pdfPath)
	if metaPath != filepath.Join(dir, "2301.07041.yaml") {
		t.Errorf("MetadataPath = %q", metaPath)
	}

	paper := types.Paper{ID: "2301.07041", Title: "A Paper", Authors: []string{"Doe"}}
	if err := WriteMetadata(paper, metaPath); err != nil {
		t.Fatalf("WriteMetadata() error = %v", err)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("reading metadata: %v", err)
	}
	if !strings.Contains(string(data), "2301.07041") || !strings.Contains(string(data), "A Paper") {
		t.Errorf("metadata missing fields:\n%s", data)
	}
}
