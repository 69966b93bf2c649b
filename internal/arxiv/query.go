// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"fmt"
	"strings"
)

// AdvancedQuery holds fielded search terms combined with AND.
type AdvancedQuery struct {
	Title    string
	Abstract string
	Author   string

	// DateFrom and DateTo bound the submission date (YYYY-MM-DD).
	// Either may be empty; an open bound uses the arXiv wildcard.
	DateFrom string
	DateTo   string
}

// Build renders the query as an arXiv search_query expression. An empty
// query matches everything ("*:*").
func (q AdvancedQuery) Build() string {
	var parts []string

	if q.Title != "" {
		parts = append(parts, fmt.Sprintf("ti:%q", q.Title))
	}
	if q.Abstract != "" {
		parts = append(parts, fmt.Sprintf("abs:%q", q.Abstract))
	}
	if q.Author != "" {
		parts = append(parts, fmt.Sprintf("au:%q", q.Author))
	}
	if q.DateFrom != "" || q.DateTo != "" {
		from := q.DateFrom
		if from == "" {
			from = "*"
		}
		to := q.DateTo
		if to == "" {
			to = "now"
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
	}

	if len(parts) == 0 {
		return "*:*"
	}
	return strings.Join(parts, " AND ")
}

// Categories returns the arXiv categories the explorer offers as filters,
// mapped to human-readable descriptions.
func Categories() map[string]string {
	return map[string]string{
		"cs.AI":   "Artificial Intelligence",
		"cs.CL":   "Computation and Language",
		"cs.CV":   "Computer Vision and Pattern Recognition",
		"cs.LG":   "Machine Learning",
		"cs.NE":   "Neural and Evolutionary Computing",
		"stat.ML": "Machine Learning (Statistics)",
		"math.OC": "Optimization and Control",
	}
}
