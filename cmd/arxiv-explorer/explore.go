package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-explorer/internal/analyze"
	"github.com/pdiddy/arxiv-explorer/internal/library"
	"github.com/pdiddy/arxiv-explorer/internal/session"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [query]",
	Short: "Run the full workflow: search, analyze each abstract, download",
	Long: `Explore searches arXiv, prints the results, analyzes each abstract in turn
(throttled, one at a time), and downloads the papers selected with --download.
Analysis is skipped when no API key is configured.`,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().String("title", "", "search within titles")
	exploreCmd.Flags().String("abstract", "", "search within abstracts")
	exploreCmd.Flags().String("author", "", "filter by author name")
	exploreCmd.Flags().String("from", "", "submission date range start (YYYY-MM-DD)")
	exploreCmd.Flags().String("to", "", "submission date range end (YYYY-MM-DD)")
	exploreCmd.Flags().StringSlice("category", nil, "restrict to arXiv categories (e.g. cs.LG)")
	exploreCmd.Flags().Int("max-results", 0, "maximum number of results (capped at 50)")
	exploreCmd.Flags().String("sort-by", "", "sort field: relevance, lastUpdatedDate, submittedDate")
	exploreCmd.Flags().IntSlice("download", nil, "result numbers to download (1-based, as printed)")
	exploreCmd.Flags().Bool("no-analyze", false, "skip abstract analysis")

	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	params, err := searchParams(cmd, args)
	if err != nil {
		return err
	}

	cfg := sessionConfig()
	logger := log.New(os.Stderr)

	var backend analyze.Backend
	noAnalyze, _ := cmd.Flags().GetBool("no-analyze")
	if !noAnalyze && cfg.Analysis.APIKey != "" {
		backend = analyze.NewDeepSeek(nil, cfg.Analysis)
	} else if !noAnalyze {
		logger.Warn("no analysis API key configured, skipping analysis")
	}

	lib, err := library.Open(cfg.Library)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer lib.Close()

	dlDone := make(chan error, 1)
	cb := session.Callbacks{
		OnStatus: func(msg string) { logger.Info(msg) },
		OnSearchResults: func(papers []types.Paper) {
			printResults(papers)
		},
		OnSearchError: func(msg string) {
			logger.Error("search failed", "error", msg)
		},
		OnAnalysis: func(index int, text string) {
			fmt.Printf("\n=== Analysis of paper %d ===\n%s\n", index+1, text)
		},
		OnAnalysisError: func(index int, msg string) {
			logger.Error("analysis failed", "paper", index+1, "error", msg)
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
			logger.Info("downloaded", "path", path)
			dlDone <- nil
		},
		OnDownloadError: func(msg string) {
			fmt.Fprintln(os.Stderr)
			dlDone <- fmt.Errorf("%s", msg)
		},
	}

	s := session.New(cmd.Context(), cfg, backend, lib, logger, cb)
	defer s.Close()

	if err := s.Search(params); err != nil {
		return err
	}
	s.WaitIdle()

	papers := s.Papers()
	if len(papers) == 0 {
		return nil
	}

	picks, _ := cmd.Flags().GetIntSlice("download")
	for _, n := range picks {
		if err := s.Download(n-1, ""); err != nil {
			logger.Error("download failed", "paper", n, "error", err)
			continue
		}
		if err := <-dlDone; err != nil {
			logger.Error("download failed", "paper", n, "error", err)
		}
	}
	return nil
}

func printResults(papers []types.Paper) {
	fmt.Println()
	for i, p := range papers {
		fmt.Printf("%d. %s\n", i+1, p.Title)
		fmt.Printf("   %s | %s | %s\n", p.ID, p.Published.Format("2006-01-02"), p.PrimaryCategory)
	}
	fmt.Println()
}
