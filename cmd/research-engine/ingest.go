// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/prasannaarjun/hopscout/internal/retriever"
	"github.com/prasannaarjun/hopscout/pkg/types"
)

var ingestUserID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [corpus.yaml]",
	Short: "Load a YAML passage corpus into the local passage store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading corpus file: %w", err)
		}

		var passages []types.Passage
		if err := yaml.Unmarshal(raw, &passages); err != nil {
			return fmt.Errorf("parsing corpus YAML: %w", err)
		}
		if len(passages) == 0 {
			return fmt.Errorf("corpus file %s contains no passages", args[0])
		}

		cfg := loadPipelineConfig()
		store, err := retriever.Open(cfg.Retriever.DBPath, ingestUserID, cfg.Retriever.MaxResults)
		if err != nil {
			return fmt.Errorf("opening passage store: %w", err)
		}
		defer store.Close()

		if err := store.IngestBatch(context.Background(), passages); err != nil {
			return fmt.Errorf("ingesting passages: %w", err)
		}

		fmt.Fprintf(os.Stderr, "ingested %d passages for user %q\n", len(passages), ingestUserID)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUserID, "user", "default", "corpus owner to scope the ingested passages to")
	rootCmd.AddCommand(ingestCmd)
}
