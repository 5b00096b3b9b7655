// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/prasannaarjun/hopscout/internal/llmclient"
	"github.com/prasannaarjun/hopscout/internal/research"
	"github.com/prasannaarjun/hopscout/internal/retriever"
)

var exportUserID string
var exportFormat string
var exportOut string

// exportCmd runs the research loop and writes the full ResearchResult
// (hop log and coverage snapshot included) to a file, mirroring the
// donor's ExportYAML/ExportJSON pair rather than printing to stdout.
var exportCmd = &cobra.Command{
	Use:   "export [question]",
	Short: "Run the research loop and write the full result to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]
		cfg := loadPipelineConfig()

		store, err := retriever.Open(cfg.Retriever.DBPath, exportUserID, cfg.Retriever.MaxResults)
		if err != nil {
			return fmt.Errorf("opening passage store: %w", err)
		}
		defer store.Close()

		var llm research.LLMClient
		if cfg.AI.APIKey != "" {
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

		result, err := loop.Run(context.Background(), question)
		if err != nil {
			return fmt.Errorf("running research loop: %w", err)
		}

		path := exportOut
		if path == "" {
			if strings.ToLower(exportFormat) == "json" {
				path = "research-result.json"
			} else {
				path = "research-result.yaml"
			}
		}

		var data []byte
		switch strings.ToLower(exportFormat) {
		case "json":
			data, err = json.MarshalIndent(result, "", "  ")
		case "yaml", "":
			data, err = yaml.Marshal(result)
		default:
			return fmt.Errorf("unknown format %q: want yaml or json", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}

		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "wrote result to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportUserID, "user", "default", "corpus owner to scope retrieval to")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "output format: yaml or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file path (default research-result.yaml or .json)")
	rootCmd.AddCommand(exportCmd)
}
