// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-explorer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the arXiv search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the default maximum number of results per query
	// (default 10, capped at 50 by the arXiv API).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinRequestInterval is the minimum spacing between consecutive arXiv
	// API calls, enforced by the rate limiter (default 3s).
	MinRequestInterval time.Duration `json:"min_request_interval" yaml:"min_request_interval"`
}

// AnalysisConfig holds settings for the abstract analysis stage.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the chat model identifier (e.g. "deepseek-chat").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the analysis API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the OpenAI-compatible API root (default "https://api.deepseek.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the response length (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// CallTimeout bounds a single analysis call; exceeding it reports a
	// timeout error and abandons the in-flight call (default 60s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// Delay is the pause between consecutive queued analyses (default 3s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// DownloadConfig holds settings for the PDF download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// ChunkSize is the copy buffer size in bytes (default 8192).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// PapersDir is the default destination directory for downloaded PDFs.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`
}

// LibraryConfig holds settings for the local paper catalog.
type LibraryConfig struct {
	// Dir is the directory containing the catalog database.
	Dir string `json:"dir" yaml:"dir"`
}

// SessionConfig groups all stage configurations for an explorer session.
type SessionConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Library  LibraryConfig  `json:"library" yaml:"library"`
}
