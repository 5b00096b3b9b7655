// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/prasannaarjun/hopscout/internal/llmclient"
	"github.com/prasannaarjun/hopscout/internal/research"
	"github.com/prasannaarjun/hopscout/internal/retriever"
)

var runUserID string
var runFormat string
var runNoLLM bool

var runCmd = &cobra.Command{
	Use:   "run [question]",
	Short: "Run the multi-hop research loop over a question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]
		cfg := loadPipelineConfig()

		store, err := retriever.Open(cfg.Retriever.DBPath, runUserID, cfg.Retriever.MaxResults)
		if err != nil {
			return fmt.Errorf("opening passage store: %w", err)
		}
		defer store.Close()

		var llm research.LLMClient
		if !runNoLLM && cfg.AI.APIKey != "" {
			llm = &llmclient.ClaudeClient{APIKey: cfg.AI.APIKey, Model: cfg.AI.Model, MaxRetries: cfg.AI.MaxRetries}
		}

		loop := research.NewLoop(store, llm, research.Options{
			PerSubK:          cfg.Research.PerSubK,
			MinHops:          cfg.Research.MinHops,
			MaxHops:          cfg.Research.MaxHops,
			CoverThreshold:   cfg.Research.CoverThreshold,
			QualityThreshold: cfg.Research.QualityThreshold,
			Adaptive:         cfg.Research.Adaptive,
			Log:              os.Stderr,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := loop.Run(ctx, question)
		if err != nil {
			return fmt.Errorf("running research loop: %w", err)
		}

		return writeResult(os.Stdout, result, runFormat)
	},
}

func init() {
	runCmd.Flags().StringVar(&runUserID, "user", "default", "corpus owner to scope retrieval to")
	runCmd.Flags().StringVar(&runFormat, "format", "yaml", "output format: yaml or json")
	runCmd.Flags().BoolVar(&runNoLLM, "no-llm", false, "force the heuristic/deterministic path, skipping Claude calls")
	rootCmd.AddCommand(runCmd)
}

func writeResult(w *os.File, result any, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml", "":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q: want yaml or json", format)
	}
}
