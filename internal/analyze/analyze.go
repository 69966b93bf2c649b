// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze summarizes paper abstracts through a chat-completion
// API. The backend is an interface per the Strategy pattern so tests can
// supply a mock and alternative providers can be added.
package analyze

import "context"

// Backend analyzes a single paper abstract and returns the analysis text.
// Implementations perform one blocking network call per invocation; the
// caller supplies cancellation and timeout through ctx and the task layer.
type Backend interface {
	// Name returns the backend identifier (e.g. "deepseek").
	Name() string

	// Analyze summarizes the abstract. The returned string is the raw
	// analysis text with surrounding whitespace trimmed.
	Analyze(ctx context.Context, abstract string) (string, error)
}
