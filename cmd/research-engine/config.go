// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/prasannaarjun/hopscout/pkg/types"
)

// loadPipelineConfig reads the research/retriever/ai sections from viper,
// applying the same defaults research.Options.withDefaults and
// retriever.Open apply, so a bare invocation with no config file works.
// research.adaptive defaults to true here, whereas an Options value left
// unset has Adaptive=false (batch mode).
func loadPipelineConfig() types.PipelineConfig {
	viper.SetDefault("research.per_sub_k", 3)
	viper.SetDefault("research.min_hops", 3)
	viper.SetDefault("research.max_hops", 10)
	viper.SetDefault("research.cover_threshold", 0.5)
	viper.SetDefault("research.quality_threshold", 0.5)
	viper.SetDefault("research.adaptive", true)
	viper.SetDefault("retriever.db_path", "research-engine.db")
	viper.SetDefault("retriever.max_results", 20)
	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("ai.max_retries", 3)

	return types.PipelineConfig{
		Research: types.ResearchConfig{
			PerSubK:          viper.GetInt("research.per_sub_k"),
			MinHops:          viper.GetInt("research.min_hops"),
			MaxHops:          viper.GetInt("research.max_hops"),
			CoverThreshold:   viper.GetFloat64("research.cover_threshold"),
			QualityThreshold: viper.GetFloat64("research.quality_threshold"),
			Adaptive:         viper.GetBool("research.adaptive"),
		},
		Retriever: types.RetrieverConfig{
			DBPath:     viper.GetString("retriever.db_path"),
			MaxResults: viper.GetInt("retriever.max_results"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault("anthropic-api-key", viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
	}
}
