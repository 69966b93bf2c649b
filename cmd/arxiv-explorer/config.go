// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-explorer/pkg/types"
)

const (
	defaultUserAgent   = "arxiv-explorer/0.1"
	defaultTimeout     = 30 * time.Second
	defaultMaxResults  = 10
	defaultMinInterval = 3 * time.Second
	defaultCallTimeout = 60 * time.Second
	defaultDelay       = 3 * time.Second
	defaultChunkSize   = 8192
	defaultPapersDir   = "papers"
	defaultLibraryDir  = "."
)

func init() {
	viper.SetDefault("search.max_results", defaultMaxResults)
	viper.SetDefault("search.min_request_interval", defaultMinInterval)
	viper.SetDefault("search.timeout", defaultTimeout)
	viper.SetDefault("analysis.model", "deepseek-chat")
	viper.SetDefault("analysis.base_url", "https://api.deepseek.com")
	viper.SetDefault("analysis.temperature", 0.7)
	viper.SetDefault("analysis.max_tokens", 1000)
	viper.SetDefault("analysis.call_timeout", defaultCallTimeout)
	viper.SetDefault("analysis.delay", defaultDelay)
	viper.SetDefault("analysis.timeout", defaultCallTimeout)
	viper.SetDefault("download.chunk_size", defaultChunkSize)
	viper.SetDefault("download.papers_dir", defaultPapersDir)
	viper.SetDefault("download.timeout", 5*time.Minute)
	viper.SetDefault("library.dir", defaultLibraryDir)
}

// sessionConfig assembles the stage configuration from viper, with the
// analysis API key falling back to the deepseek-api-key secret file.
func sessionConfig() types.SessionConfig {
	return types.SessionConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: defaultUserAgent,
			},
			MaxResults:         viper.GetInt("search.max_results"),
			MinRequestInterval: viper.GetDuration("search.min_request_interval"),
		},
		Analysis: types.AnalysisConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("analysis.timeout"),
				UserAgent: defaultUserAgent,
			},
			Model:       viper.GetString("analysis.model"),
			APIKey:      secretDefault("deepseek-api-key", viper.GetString("analysis.api_key")),
			BaseURL:     viper.GetString("analysis.base_url"),
			Temperature: viper.GetFloat64("analysis.temperature"),
			MaxTokens:   viper.GetInt("analysis.max_tokens"),
			CallTimeout: viper.GetDuration("analysis.call_timeout"),
			Delay:       viper.GetDuration("analysis.delay"),
		},
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("download.timeout"),
				UserAgent: defaultUserAgent,
			},
			ChunkSize: viper.GetInt("download.chunk_size"),
			PapersDir: viper.GetString("download.papers_dir"),
		},
		Library: types.LibraryConfig{
			Dir: viper.GetString("library.dir"),
		},
	}
}
