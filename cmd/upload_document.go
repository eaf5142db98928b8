/*
Copyright © 2025 daivikpurani
*/
package cmd

import (
	"context"
	"log"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/daivikpurani/AI-Tutor/config"
	"github.com/daivikpurani/AI-Tutor/database"
	"github.com/daivikpurani/AI-Tutor/service"
	"github.com/daivikpurani/AI-Tutor/types"
	"github.com/daivikpurani/AI-Tutor/utils"
)

// uploadDocumentCmd ingests a file from disk without going through the HTTP API.
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document [file]",
	Short: "Ingest a course material file into the vector index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		sourcePath := args[0]
		format, ok := types.SourceFormatFromExt(filepath.Ext(sourcePath))
		if !ok {
			log.Fatalf("Unsupported file format: %s", filepath.Ext(sourcePath))
		}

		savedPath, err := utils.CopyFileWithTimestamp(sourcePath, cfg.UploadDir)
		if err != nil {
			log.Fatalf("Failed to save file: %v", err)
		}

		text, err := service.ExtractText(savedPath, format)
		if err != nil {
			log.Fatalf("Failed to extract text: %v", err)
		}

		documentService, _, err := newIngestStack(cfg)
		if err != nil {
			log.Fatalf("Failed to create vector index: %v", err)
		}

		documentID := uuid.NewString()
		chunks, err := documentService.Ingest(context.Background(), documentID, filepath.Base(sourcePath), text, format)
		if err != nil {
			log.Fatalf("Failed to ingest document: %v", err)
		}

		log.Printf("Ingested %s as document %s (%d chunks)\n", sourcePath, documentID, len(chunks))
	},
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)
}

// newIngestStack builds the embedder, the configured vector index and the
// document service for the ingest CLI commands.
func newIngestStack(cfg *config.Config) (*service.DocumentService, database.VectorIndex, error) {
	embedder := service.NewOpenAIEmbedder(
		cfg.AIEndpoint,
		cfg.OpenAIAPIKey,
		cfg.EmbeddingModel,
		cfg.EmbeddingDimension,
		cfg.EmbeddingTimeout,
	)

	var index database.VectorIndex
	var err error
	switch cfg.VectorIndex {
	case "weaviate":
		index, err = database.NewWeaviateIndex(cfg.WeaviateStoreConfig, cfg.EmbeddingDimension)
	default:
		index, err = database.NewMemoryIndex(cfg.EmbeddingDimension)
	}
	if err != nil {
		return nil, nil, err
	}

	chunker := service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	return service.NewDocumentService(chunker, embedder, index), index, nil
}
