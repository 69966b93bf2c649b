// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-explorer/internal/analyze"
	"github.com/pdiddy/arxiv-explorer/internal/arxiv"
	"github.com/pdiddy/arxiv-explorer/internal/library"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

const feedTmpl = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v1</id>
    <published>2023-01-17T18:59:59Z</published>
    <updated>2023-01-17T18:59:59Z</updated>
    <title>First Paper</title>
    <summary>First abstract.</summary>
    <author><name>Doe</name></author>
    <link href="http://arxiv.org/abs/2301.07041v1" rel="alternate"/>
    <link title="pdf" href="%[1]s/pdf/2301.07041v1" rel="related"/>
    <category term="cs.LG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.00001v2</id>
    <published>2023-02-01T00:00:00Z</published>
    <updated>2023-02-02T00:00:00Z</updated>
    <title>Second Paper</title>
    <summary>Second abstract.</summary>
    <author><name>Roe</name></author>
    <link href="http://arxiv.org/abs/2302.00001v2" rel="alternate"/>
    <link title="pdf" href="%[1]s/pdf/2302.00001v2" rel="related"/>
    <category term="cs.CL"/>
  </entry>
</feed>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"></feed>`

// stubBackend answers analysis calls with a canned response per abstract.
type stubBackend struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Analyze(_ context.Context, abstract string) (string, error) {
	b.mu.Lock()
	b.calls = append(b.calls, abstract)
	b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	return "analysis of " + abstract, nil
}

// recorder collects session notifications under a lock.
type recorder struct {
	mu        sync.Mutex
	results   [][]types.Paper
	searchErr []string
	analyses  map[int]string
	analErr   map[int]string
	percents  []int
	finished  []bool
	dlErrs    []string
}

func newRecorder() *recorder {
	return &recorder{analyses: map[int]string{}, analErr: map[int]string{}}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnSearchResults: func(papers []types.Paper) {
			r.mu.Lock()
			r.results = append(r.results, papers)
			r.mu.Unlock()
		},
		OnSearchError: func(msg string) {
			r.mu.Lock()
			r.searchErr = append(r.searchErr, msg)
			r.mu.Unlock()
		},
		OnAnalysis: func(index int, text string) {
			r.mu.Lock()
			r.analyses[index] = text
			r.mu.Unlock()
		},
		OnAnalysisError: func(index int, msg string) {
			r.mu.Lock()
			r.analErr[index] = msg
			r.mu.Unlock()
		},
		OnDownloadProgress: func(percent int) {
			r.mu.Lock()
			r.percents = append(r.percents, percent)
			r.mu.Unlock()
		},
		OnDownloadFinished: func(ok bool, _ string) {
			r.mu.Lock()
			r.finished = append(r.finished, ok)
			r.mu.Unlock()
		},
		OnDownloadError: func(msg string) {
			r.mu.Lock()
			r.dlErrs = append(r.dlErrs, msg)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) analysisCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.analyses)
}

// testServer serves the two-entry feed on /api and a small PDF body on
// /pdf/ paths.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/api", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, feedTmpl, ts.URL)
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("%PDF-1.4 test body"))
	})
	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(dir string) types.SessionConfig {
	return types.SessionConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
			MaxResults: 10,
		},
		Analysis: types.AnalysisConfig{
			CallTimeout: 5 * time.Second,
			Delay:       time.Millisecond,
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
			ChunkSize:  4,
			PapersDir:  dir,
		},
	}
}

func newTestSession(t *testing.T, backend *stubBackend, lib *library.Store, rec *recorder) (*Session, *httptest.Server) {
	t.Helper()
	ts := testServer(t)
	var be analyze.Backend
	if backend != nil {
		be = backend
	}
	s := New(context.Background(), testConfig(t.TempDir()), be, lib, nil, rec.callbacks())
	s.Arxiv.BaseURL = ts.URL + "/api"
	t.Cleanup(s.Close)
	return s, ts
}

func TestSessionSearchAndAnalyze(t *testing.T) {
	backend := &stubBackend{}
	rec := newRecorder()
	s, _ := newTestSession(t, backend, nil, rec)

	require.NoError(t, s.Search(arxiv.Params{Query: "attention"}))

	assert.Eventually(t, func() bool { return rec.analysisCount() == 2 },
		2*time.Second, 5*time.Millisecond)
	s.WaitIdle()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.results, 1)
	require.Len(t, rec.results[0], 2)
	assert.Equal(t, "2301.07041", rec.results[0][0].ID)
	assert.Equal(t, "analysis of First abstract.", rec.analyses[0])
	assert.Equal(t, "analysis of Second abstract.", rec.analyses[1])
	assert.Empty(t, rec.searchErr)
	assert.Empty(t, rec.analErr)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"First abstract.", "Second abstract."}, backend.calls)
}

func TestSessionSearchWithoutBackendSkipsAnalysis(t *testing.T) {
	rec := newRecorder()
	s, _ := newTestSession(t, nil, nil, rec)

	require.NoError(t, s.Search(arxiv.Params{Query: "attention"}))
	s.WaitIdle()
	time.Sleep(20 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.results, 1)
	assert.Empty(t, rec.analyses)
}

func TestSessionSearchWhileSearching(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, _ *http.Request) {
		<-release
		fmt.Fprint(w, emptyFeed)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	rec := newRecorder()
	s := New(context.Background(), testConfig(t.TempDir()), nil, nil, nil, rec.callbacks())
	s.Arxiv.BaseURL = ts.URL + "/api"
	t.Cleanup(s.Close)

	require.NoError(t, s.Search(arxiv.Params{Query: "first"}))
	err := s.Search(arxiv.Params{Query: "second"})
	assert.ErrorIs(t, err, ErrSearchInProgress)

	close(release)
	s.WaitIdle()
}

func TestSessionNewSearchDiscardsQueuedAnalyses(t *testing.T) {
	backend := &stubBackend{}
	rec := newRecorder()
	ts := testServer(t)

	// A large delay keeps the second entry queued after the first
	// analysis completes.
	cfg := testConfig(t.TempDir())
	cfg.Analysis.Delay = time.Hour
	s2 := New(context.Background(), cfg, backend, nil, nil, rec.callbacks())
	s2.Arxiv.BaseURL = ts.URL + "/api"
	t.Cleanup(s2.Close)

	require.NoError(t, s2.Search(arxiv.Params{Query: "first"}))
	assert.Eventually(t, func() bool { return rec.analysisCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	// The new search clears the queue before the hour elapses.
	require.NoError(t, s2.Search(arxiv.Params{Query: "second"}))
	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.results) == 2
	}, 2*time.Second, 5*time.Millisecond)

	// One call per search's first entry; the stale queued entry from the
	// first search never fires after the clear.
	assert.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return len(backend.calls) == 2
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Len(t, backend.calls, 2, "stale queued analysis ran after Clear")
}

func TestSessionDownload(t *testing.T) {
	dir := t.TempDir()
	lib, err := library.Open(types.LibraryConfig{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })

	rec := newRecorder()
	s, _ := newTestSession(t, nil, lib, rec)
	s.cfg.Download.PapersDir = dir

	require.NoError(t, s.Search(arxiv.Params{Query: "attention"}))
	s.WaitIdle()

	require.NoError(t, s.Download(0, ""))
	s.WaitIdle()

	rec.mu.Lock()
	require.Equal(t, []bool{true}, rec.finished)
	assert.Empty(t, rec.dlErrs)
	require.NotEmpty(t, rec.percents)
	assert.Equal(t, 100, rec.percents[len(rec.percents)-1])
	rec.mu.Unlock()

	pdfPath := filepath.Join(dir, "2301.07041.pdf")
	_, err = os.Stat(pdfPath)
	assert.NoError(t, err, "PDF not written")
	_, err = os.Stat(filepath.Join(dir, "2301.07041.yaml"))
	assert.NoError(t, err, "metadata sidecar not written")

	recd, err := lib.Get("2301.07041")
	require.NoError(t, err)
	assert.Equal(t, pdfPath, recd.PDFPath)
	assert.Equal(t, "First Paper", recd.Paper.Title)
}

func TestSessionDownloadBadIndex(t *testing.T) {
	rec := newRecorder()
	s, _ := newTestSession(t, nil, nil, rec)

	err := s.Download(0, "")
	assert.Error(t, err, "download before any search must fail")

	require.NoError(t, s.Search(arxiv.Params{Query: "attention"}))
	s.WaitIdle()
	assert.Error(t, s.Download(99, ""))
	assert.Error(t, s.Download(-1, ""))
}

func TestSessionServerFailureReportsFinishedFalse(t *testing.T) {
	mux := http.NewServeMux()
	var ts *httptest.Server
	mux.HandleFunc("/api", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, feedTmpl, ts.URL)
	})
	mux.HandleFunc("/pdf/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	rec := newRecorder()
	s := New(context.Background(), testConfig(t.TempDir()), nil, nil, nil, rec.callbacks())
	s.Arxiv.BaseURL = ts.URL + "/api"
	t.Cleanup(s.Close)

	require.NoError(t, s.Search(arxiv.Params{Query: "attention"}))
	s.WaitIdle()
	require.NoError(t, s.Download(0, ""))
	s.WaitIdle()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []bool{false}, rec.finished)
	assert.Empty(t, rec.dlErrs, "server-signaled failure is not a transfer exception")
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	rec := newRecorder()
	s, _ := newTestSession(t, nil, nil, rec)

	s.Close()
	s.Close()
	assert.ErrorContains(t, s.Search(arxiv.Params{Query: "x"}), "closed")
	assert.ErrorContains(t, s.Download(0, ""), "closed")
}
