package main

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-explorer/internal/arxiv"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search arXiv for papers",
	Long: `Search queries the arXiv API for papers matching a free-text query or
fielded terms (title, abstract, author, submission date range). Requests are
rate limited per the arXiv usage policy. Results print as a table or JSON.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("title", "", "search within titles")
	searchCmd.Flags().String("abstract", "", "search within abstracts")
	searchCmd.Flags().String("author", "", "filter by author name")
	searchCmd.Flags().String("from", "", "submission date range start (YYYY-MM-DD)")
	searchCmd.Flags().String("to", "", "submission date range end (YYYY-MM-DD)")
	searchCmd.Flags().StringSlice("category", nil, "restrict to arXiv categories (e.g. cs.LG)")
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (capped at 50)")
	searchCmd.Flags().String("sort-by", "", "sort field: relevance, lastUpdatedDate, submittedDate")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().Bool("list-categories", false, "list the known category filters and exit")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if list, _ := cmd.Flags().GetBool("list-categories"); list {
		printCategories(os.Stdout)
		return nil
	}

	params, err := searchParams(cmd, args)
	if err != nil {
		return err
	}

	cfg := sessionConfig()
	client := arxiv.NewClient(&http.Client{Timeout: cfg.Search.Timeout}, cfg.Search)

	papers, err := client.Search(cmd.Context(), params)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return arxiv.FormatJSON(papers, os.Stdout)
	}
	arxiv.FormatTable(papers, os.Stdout)
	return nil
}

// searchParams builds query parameters from positional args and flags.
// A positional free-text query and fielded flags combine with AND.
func searchParams(cmd *cobra.Command, args []string) (arxiv.Params, error) {
	adv := arxiv.AdvancedQuery{}
	adv.Title, _ = cmd.Flags().GetString("title")
	adv.Abstract, _ = cmd.Flags().GetString("abstract")
	adv.Author, _ = cmd.Flags().GetString("author")
	adv.DateFrom, _ = cmd.Flags().GetString("from")
	adv.DateTo, _ = cmd.Flags().GetString("to")

	query := strings.TrimSpace(strings.Join(args, " "))
	fielded := adv.Build()
	switch {
	case query != "" && fielded != "*:*":
		query = query + " AND " + fielded
	case query == "":
		query = fielded
	}
	if query == "*:*" {
		return arxiv.Params{}, fmt.Errorf("provide a query or at least one of --title, --abstract, --author, --from, --to")
	}

	categories, _ := cmd.Flags().GetStringSlice("category")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sortBy, _ := cmd.Flags().GetString("sort-by")

	return arxiv.Params{
		Query:      query,
		MaxResults: maxResults,
		SortBy:     arxiv.SortBy(sortBy),
		Categories: categories,
	}, nil
}

func printCategories(w *os.File) {
	cats := arxiv.Categories()
	keys := make([]string, 0, len(cats))
	for k := range cats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-10s %s\n", k, cats[k])
	}
}
