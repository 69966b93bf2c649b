package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-explorer/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [abstract-file]",
	Short: "Analyze a paper abstract with the configured LLM",
	Long: `Analyze sends an abstract to the analysis API and prints the structured
summary (topic, contributions, methodology, findings, significance). The
abstract is read from the given file, or from stdin when no file is given.

Requires a DeepSeek API key in .secrets/deepseek-api-key or analysis.api_key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("reading abstract: %w", err)
	}
	abstract := strings.TrimSpace(string(data))
	if abstract == "" {
		return fmt.Errorf("empty abstract")
	}

	cfg := sessionConfig()
	backend := analyze.NewDeepSeek(&http.Client{Timeout: cfg.Analysis.Timeout}, cfg.Analysis)

	text, err := backend.Analyze(cmd.Context(), abstract)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}
