// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RetrieverConfig holds settings for the SQLite-backed passage retriever.
type RetrieverConfig struct {
	// DBPath is the path to the SQLite database file holding the passage index.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults bounds the number of passages returned when a caller does
	// not specify top_k explicitly.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ResearchConfig holds the tunable parameters of the research loop. It maps
// directly onto research.Options; the CLI and config file populate this
// struct and convert it at the call boundary.
type ResearchConfig struct {
	// PerSubK is the number of passages retrieved per sub-query (default 3).
	PerSubK int `json:"per_sub_k" yaml:"per_sub_k"`

	// MinHops is the minimum number of hops before early stopping is allowed (default 3).
	MinHops int `json:"min_hops" yaml:"min_hops"`

	// MaxHops is the hop budget ceiling (default 10).
	MaxHops int `json:"max_hops" yaml:"max_hops"`

	// CoverThreshold is the coverage score at which an aspect counts as covered (default 0.5).
	CoverThreshold float64 `json:"cover_threshold" yaml:"cover_threshold"`

	// QualityThreshold is the average passage score required for the
	// fallback stopping rule when aspect coverage is disabled (default 0.5).
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold"`

	// Adaptive selects aspect-guided mode (true, default) over batch mode (false).
	Adaptive bool `json:"adaptive" yaml:"adaptive"`
}

// PipelineConfig groups all component configurations for the research CLI.
type PipelineConfig struct {
	Research  ResearchConfig  `json:"research" yaml:"research"`
	Retriever RetrieverConfig `json:"retriever" yaml:"retriever"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
}
