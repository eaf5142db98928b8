/*
Copyright © 2025 daivikpurani
*/
package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/daivikpurani/AI-Tutor/config"
	"github.com/daivikpurani/AI-Tutor/database"
)

// resetIndexCmd drops every chunk from the configured vector index.
var resetIndexCmd = &cobra.Command{
	Use:   "reset-index",
	Short: "Delete all chunks from the vector index",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		var index database.VectorIndex
		switch cfg.VectorIndex {
		case "weaviate":
			index, err = database.NewWeaviateIndex(cfg.WeaviateStoreConfig, cfg.EmbeddingDimension)
		default:
			index, err = database.NewMemoryIndex(cfg.EmbeddingDimension)
		}
		if err != nil {
			log.Fatalf("Failed to create vector index: %v", err)
		}

		if err := index.Reset(context.Background()); err != nil {
			log.Fatalf("Failed to reset index: %v", err)
		}
		log.Println("Vector index reset")
	},
}

func init() {
	rootCmd.AddCommand(resetIndexCmd)
}
