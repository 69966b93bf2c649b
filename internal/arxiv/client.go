// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv queries the arXiv API and maps Atom feed entries into
// paper records. All requests pass through a rate limiter honoring the
// arXiv usage policy.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-explorer/internal/httputil"
	"github.com/pdiddy/arxiv-explorer/internal/throttle"
	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

// apiBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

// maxResultsCap is the per-request result ceiling imposed by arXiv.
const maxResultsCap = 50

// SortBy selects the result ordering field.
type SortBy string

const (
	SortRelevance     SortBy = "relevance"
	SortLastUpdated   SortBy = "lastUpdatedDate"
	SortSubmittedDate SortBy = "submittedDate"
)

// SortOrder selects ascending or descending order.
type SortOrder string

const (
	OrderAscending  SortOrder = "ascending"
	OrderDescending SortOrder = "descending"
)

// Params holds the search parameters for a single query.
type Params struct {
	// Query is the search_query expression (free text or fielded).
	Query string

	// Start is the zero-based result offset for pagination.
	Start int

	// MaxResults is the number of results to request (capped at 50).
	MaxResults int

	// SortBy orders results by relevance, last update, or submission date.
	SortBy SortBy

	// SortOrder is ascending or descending (default descending).
	SortOrder SortOrder

	// Categories restricts the search to the given arXiv categories,
	// ORed together and ANDed with the query.
	Categories []string
}

// Client queries the arXiv API.
type Client struct {
	HTTPClient *http.Client
	Limiter    *throttle.Limiter
	Config     types.SearchConfig

	// BaseURL overrides the arXiv endpoint; empty selects the default.
	BaseURL string
}

// NewClient returns a Client with a rate limiter derived from cfg.
func NewClient(httpClient *http.Client, cfg types.SearchConfig) *Client {
	return &Client{
		HTTPClient: httpClient,
		Limiter:    throttle.NewLimiter(cfg.MinRequestInterval),
		Config:     cfg,
	}
}

// Search performs a rate-limited query against the arXiv API and returns
// the matching papers. An empty feed yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, p Params) ([]types.Paper, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if len(p.Categories) > 0 {
		cats := make([]string, len(p.Categories))
		for i, cat := range p.Categories {
			cats[i] = "cat:" + cat
		}
		query = fmt.Sprintf("(%s) AND (%s)", query, strings.Join(cats, " OR "))
	}

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = c.Config.MaxResults
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = SortRelevance
	}
	sortOrder := p.SortOrder
	if sortOrder == "" {
		sortOrder = OrderDescending
	}

	vals := url.Values{}
	vals.Set("search_query", query)
	vals.Set("start", strconv.Itoa(p.Start))
	vals.Set("max_results", strconv.Itoa(maxResults))
	vals.Set("sortBy", string(sortBy))
	vals.Set("sortOrder", string(sortOrder))

	base := c.BaseURL
	if base == "" {
		base = apiBase
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+vals.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	if err := c.Limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	papers := make([]types.Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		p := entry.toPaper()
		if p.ID == "" {
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Authors    []atomAuthor   `xml:"author"`
	Links      []atomLink     `xml:"link"`
	Categories []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// toPaper maps an Atom entry into a Paper record.
func (e atomEntry) toPaper() types.Paper {
	p := types.Paper{
		ID:       extractID(e.ID),
		Title:    collapseSpace(e.Title),
		Abstract: collapseSpace(e.Summary),
	}

	for _, a := range e.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}

	for _, l := range e.Links {
		switch {
		case l.Title == "pdf":
			p.PDFURL = l.Href
		case l.Rel == "alternate":
			p.AbsURL = l.Href
		}
	}

	for _, c := range e.Categories {
		if c.Term != "" {
			p.Categories = append(p.Categories, c.Term)
		}
	}
	if len(p.Categories) > 0 {
		p.PrimaryCategory = p.Categories[0]
	}

	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Published = t
	}
	if t, err := time.Parse(time.RFC3339, e.Updated); err == nil {
		p.Updated = t
	}
	return p
}

// collapseSpace trims the string and collapses internal whitespace runs,
// including the newlines arXiv inserts into titles and abstracts.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
