// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session drives a full explore workflow: rate-limited search,
// serialized abstract analysis, and PDF download, all running off the
// interactive path. A Session owns the worker supervisor and the
// analysis sequencer; nothing here uses ambient process-wide state, so
// sessions can be created and closed independently.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/arxiv-explorer/internal/analyze"
	"github.com/pdiddy/arxiv-explorer/internal/arxiv"
	"github.com/pdiddy/arxiv-explorer/internal/download"
	"github.com/pdiddy/arxiv-explorer/internal/library"
	"github.com/pdiddy/arxiv-explorer/internal/tasks"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// ErrSearchInProgress is returned when a search is requested while one
// is still running.
var ErrSearchInProgress = errors.New("search already in progress")

// ErrDownloadInProgress is returned when a download is requested while
// one is still running.
var ErrDownloadInProgress = errors.New("download already in progress")

// Callbacks receive the session's asynchronous notifications. All are
// optional and are invoked from worker goroutines; handlers must not
// call back into the Session's Search or Download synchronously with
// long blocking work.
type Callbacks struct {
	// OnStatus receives short human-readable progress messages.
	OnStatus func(msg string)

	// OnSearchResults receives the papers of a completed search.
	OnSearchResults func(papers []types.Paper)

	// OnSearchError receives a search failure message.
	OnSearchError func(msg string)

	// OnAnalysis receives the analysis text for the paper at index.
	OnAnalysis func(index int, text string)

	// OnAnalysisError receives an analysis failure for the paper at
	// index. Timeouts carry a distinguishable "timed out" message.
	OnAnalysisError func(index int, msg string)

	// OnDownloadProgress receives percent complete in 0..100.
	OnDownloadProgress func(percent int)

	// OnDownloadFinished reports the download outcome and destination.
	OnDownloadFinished func(ok bool, path string)

	// OnDownloadError receives an exceptional download failure message.
	OnDownloadError func(msg string)
}

// Session owns one explore workflow. All worker lifetime is scoped to
// the session: Close stops everything it started.
type Session struct {
	// Arxiv is the search client. Exported so tests can redirect its
	// endpoint.
	Arxiv *arxiv.Client

	cfg        types.SessionConfig
	backend    analyze.Backend // nil disables analysis
	lib        *library.Store  // nil disables cataloging
	httpClient *http.Client
	ctx        context.Context
	logger     *log.Logger
	cb         Callbacks

	sup *tasks.Supervisor
	seq *tasks.Sequencer

	mu          sync.Mutex
	papers      []types.Paper
	searching   bool
	dispatching bool
	downloading *tasks.DownloadWorker
	closed      bool
}

// New creates a Session. backend may be nil when no analysis API key is
// configured; search and download still work, analysis is skipped, as
// is lib when no catalog is wanted. ctx bounds the network calls the
// session issues; logger may be nil.
func New(ctx context.Context, cfg types.SessionConfig, backend analyze.Backend, lib *library.Store, logger *log.Logger, cb Callbacks) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	httpClient := &http.Client{Timeout: cfg.Download.Timeout}

	s := &Session{
		Arxiv:      arxiv.NewClient(&http.Client{Timeout: cfg.Search.Timeout}, cfg.Search),
		cfg:        cfg,
		backend:    backend,
		lib:        lib,
		httpClient: httpClient,
		ctx:        ctx,
		logger:     logger,
		cb:         cb,
		sup:        tasks.NewSupervisor(logger),
	}
	s.seq = tasks.NewSequencer(cfg.Analysis.Delay, s.validIndex, s.startAnalysis, logger)
	return s
}

// Papers returns the results of the most recent completed search.
func (s *Session) Papers() []types.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.papers
}

// Search starts a background search. Any in-flight workers from the
// previous search are stopped and the analysis queue is cleared first,
// so no stale result can land on the new result set. Returns
// ErrSearchInProgress while a search is still running.
func (s *Session) Search(params arxiv.Params) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if s.searching {
		s.mu.Unlock()
		return ErrSearchInProgress
	}
	s.searching = true
	s.papers = nil
	s.downloading = nil
	s.mu.Unlock()

	// Pre-search cleanup: predecessors must not outlive their query.
	s.seq.Clear()
	s.sup.StopAll()

	w := tasks.NewSearchWorker(s.ctx, s.Arxiv, params)
	w.OnFinished = s.handleSearchResults
	w.OnError = s.handleSearchError

	s.logger.Info("searching", "query", params.Query, "max_results", params.MaxResults)
	s.status("searching...")
	s.sup.Spawn(w)
	return nil
}

func (s *Session) handleSearchResults(papers []types.Paper) {
	s.mu.Lock()
	s.papers = papers
	s.searching = false
	// Keeps WaitIdle from observing an idle instant between the search
	// finishing and its analyses being enqueued.
	s.dispatching = true
	analysisEnabled := s.backend != nil
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.dispatching = false
		s.mu.Unlock()
	}()

	s.sup.ReapFinished()
	s.logger.Info("search finished", "results", len(papers))
	s.status(fmt.Sprintf("search finished: %d papers", len(papers)))
	if cb := s.cb.OnSearchResults; cb != nil {
		cb(papers)
	}

	if !analysisEnabled || len(papers) == 0 {
		return
	}
	entries := make([]tasks.Entry, 0, len(papers))
	for i, p := range papers {
		entries = append(entries, tasks.Entry{Paper: p, Abstract: p.Abstract, Index: i})
	}
	s.seq.EnqueueAll(entries)
	s.seq.PumpIfIdle()
}

func (s *Session) handleSearchError(msg string) {
	s.mu.Lock()
	s.searching = false
	s.mu.Unlock()

	s.sup.ReapFinished()
	s.logger.Error("search failed", "error", msg)
	if cb := s.cb.OnSearchError; cb != nil {
		cb(msg)
	}
}

// validIndex reports whether an analysis index still maps to a live
// result slot. Entries queued before a new search fail this check and
// are discarded silently.
func (s *Session) validIndex(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.searching && index >= 0 && index < len(s.papers)
}

// startAnalysis spawns the analysis worker for a sequencer entry.
func (s *Session) startAnalysis(e tasks.Entry) {
	w := tasks.NewAnalysisWorker(s.ctx, s.backend, e.Abstract, e.Index,
		s.cfg.Analysis.CallTimeout, 0)

	w.OnFinished = func(text string, index int) {
		// Release the sequencer slot no matter what the handler does;
		// one bad callback must not stall the queue permanently.
		defer s.analysisSettled()
		if !s.validIndex(index) {
			s.logger.Debug("discarding analysis for stale index", "index", index)
			return
		}
		s.logger.Info("analysis finished", "index", index)
		if cb := s.cb.OnAnalysis; cb != nil {
			cb(index, text)
		}
	}
	w.OnError = func(msg string, index int) {
		defer s.analysisSettled()
		s.logger.Warn("analysis failed", "index", index, "error", msg)
		if cb := s.cb.OnAnalysisError; cb != nil {
			cb(index, msg)
		}
	}

	s.status(fmt.Sprintf("analyzing paper %d...", e.Index+1))
	s.sup.Spawn(w)
}

// analysisSettled releases the sequencer slot after a terminal analysis
// outcome. Cancelled workers never reach it; Clear resets their slot.
func (s *Session) analysisSettled() {
	s.seq.Completed()
	s.sup.ReapFinished()
}

// Download streams the PDF of the paper at index to destPath. An empty
// destPath derives one from the configured papers directory and the
// paper ID. Only one download runs at a time.
func (s *Session) Download(index int, destPath string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("session closed")
	}
	if s.downloading != nil && !tasks.Finished(s.downloading) {
		s.mu.Unlock()
		return ErrDownloadInProgress
	}
	if index < 0 || index >= len(s.papers) {
		s.mu.Unlock()
		return fmt.Errorf("no paper at index %d", index)
	}
	paper := s.papers[index]
	if paper.PDFURL == "" {
		s.mu.Unlock()
		return fmt.Errorf("paper %s has no PDF link", paper.ID)
	}
	if destPath == "" {
		destPath = filepath.Join(s.cfg.Download.PapersDir, safeFileName(paper.ID)+".pdf")
	}

	w := tasks.NewDownloadWorker(s.ctx, s.httpClient, paper.PDFURL, destPath, s.cfg.Download)
	s.downloading = w
	s.mu.Unlock()

	w.OnProgress = func(percent int) {
		if cb := s.cb.OnDownloadProgress; cb != nil {
			cb(percent)
		}
	}
	w.OnFinished = func(ok bool) {
		if ok {
			s.recordDownload(paper, destPath)
		}
		s.logger.Info("download finished", "id", paper.ID, "ok", ok, "path", destPath)
		if cb := s.cb.OnDownloadFinished; cb != nil {
			cb(ok, destPath)
		}
	}
	w.OnError = func(msg string) {
		s.logger.Error("download failed", "id", paper.ID, "error", msg)
		if cb := s.cb.OnDownloadError; cb != nil {
			cb(msg)
		}
	}

	s.status(fmt.Sprintf("downloading %s...", paper.ID))
	s.sup.Spawn(w)
	return nil
}

// recordDownload writes the metadata sidecar and catalogs the paper.
// Failures here do not fail the download; they are logged and the PDF
// stays on disk.
func (s *Session) recordDownload(paper types.Paper, pdfPath string) {
	metaPath := download.MetadataPath(pdfPath)
	if err := download.WriteMetadata(paper, metaPath); err != nil {
		s.logger.Warn("writing metadata sidecar", "id", paper.ID, "error", err)
	}
	if s.lib == nil {
		return
	}
	if err := s.lib.Add(paper, pdfPath); err != nil {
		s.logger.Warn("cataloging paper", "id", paper.ID, "error", err)
	}
}

// WaitIdle blocks until no workers are live. Intended for command-line
// callers that need the asynchronous workflow to finish before exiting.
func (s *Session) WaitIdle() {
	for {
		s.sup.ReapFinished()
		s.mu.Lock()
		settled := !s.searching && !s.dispatching
		s.mu.Unlock()
		if settled && s.sup.Live() == 0 && !s.seq.Busy() && s.seq.Len() == 0 {
			return
		}
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Close clears the analysis queue and stops every live worker, waiting
// for each to terminate. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.seq.Clear()
	s.sup.StopAll()
	s.logger.Debug("session closed")
}

func (s *Session) status(msg string) {
	if cb := s.cb.OnStatus; cb != nil {
		cb(msg)
	}
}

// safeFileName flattens path separators in old-style arXiv IDs
// (e.g. "hep-th/9901001") so they form a single file name.
func safeFileName(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}
