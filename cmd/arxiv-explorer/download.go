package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-explorer/internal/library"
	"github.com/pdiddy/arxiv-explorer/internal/session"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download [query]",
	Short: "Search arXiv and download matching PDFs",
	Long: `Download searches arXiv with the given query and streams the selected
results' PDFs to the papers directory, one at a time. Each download writes a
YAML metadata sidecar and records the paper in the local catalog. By default
the first result is downloaded; use --pick to choose others.`,
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("title", "", "search within titles")
	downloadCmd.Flags().String("abstract", "", "search within abstracts")
	downloadCmd.Flags().String("author", "", "filter by author name")
	downloadCmd.Flags().String("from", "", "submission date range start (YYYY-MM-DD)")
	downloadCmd.Flags().String("to", "", "submission date range end (YYYY-MM-DD)")
	downloadCmd.Flags().StringSlice("category", nil, "restrict to arXiv categories (e.g. cs.LG)")
	downloadCmd.Flags().Int("max-results", 0, "maximum number of results (capped at 50)")
	downloadCmd.Flags().String("sort-by", "", "sort field: relevance, lastUpdatedDate, submittedDate")
	downloadCmd.Flags().IntSlice("pick", []int{1}, "result numbers to download (1-based)")
	downloadCmd.Flags().String("out", "", "destination path (single pick only)")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	params, err := searchParams(cmd, args)
	if err != nil {
		return err
	}
	picks, _ := cmd.Flags().GetIntSlice("pick")
	out, _ := cmd.Flags().GetString("out")
	if out != "" && len(picks) != 1 {
		return fmt.Errorf("--out requires exactly one --pick")
	}

	cfg := sessionConfig()
	logger := log.New(os.Stderr)

	lib, err := library.Open(cfg.Library)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer lib.Close()

	dlDone := make(chan error, 1)
	cb := session.Callbacks{
		OnSearchResults: func(papers []types.Paper) {
			logger.Info("search finished", "results", len(papers))
		},
		OnSearchError: func(msg string) {
			logger.Error("search failed", "error", msg)
		},
		OnDownloadProgress: func(percent int) {
			fmt.Fprintf(os.Stderr, "\rdownloading: %3d%%", percent)
		},
		OnDownloadFinished: func(ok bool, path string) {
			fmt.Fprintln(os.Stderr)
			if !ok {
				dlDone <- fmt.Errorf("server refused the PDF")
				return
			}
			fmt.Fprintln(os.Stdout, path)
			dlDone <- nil
		},
		OnDownloadError: func(msg string) {
			fmt.Fprintln(os.Stderr)
			dlDone <- fmt.Errorf("%s", msg)
		},
	}

	s := session.New(cmd.Context(), cfg, nil, lib, logger, cb)
	defer s.Close()

	if err := s.Search(params); err != nil {
		return err
	}
	s.WaitIdle()

	papers := s.Papers()
	if len(papers) == 0 {
		return fmt.Errorf("no results for query")
	}

	var failed int
	for _, n := range picks {
		if err := s.Download(n-1, out); err != nil {
			logger.Error("download failed", "paper", n, "error", err)
			failed++
			continue
		}
		if err := <-dlDone; err != nil {
			logger.Error("download failed", "paper", n, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}
