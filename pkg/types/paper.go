// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for arxiv-explorer:
// paper records, task lifecycle states, and stage configuration.
package types

import "time"

// Paper is a single arXiv paper as returned by the search client and
// consumed by the analysis and download stages.
type Paper struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title with internal newlines collapsed.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract with internal newlines collapsed.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// PDFURL is the direct link to the paper PDF.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// AbsURL is the human-readable abstract page on arxiv.org.
	AbsURL string `json:"abs_url" yaml:"abs_url"`

	// Published is the first submission date.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the most recent revision date.
	Updated time.Time `json:"updated" yaml:"updated"`

	// Categories lists all arXiv category terms (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories"`

	// PrimaryCategory is the first category term, or empty.
	PrimaryCategory string `json:"primary_category" yaml:"primary_category"`
}
