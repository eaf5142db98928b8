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
	"github.com/daivikpurani/AI-Tutor/service"
	"github.com/daivikpurani/AI-Tutor/types"
	"github.com/daivikpurani/AI-Tutor/utils"
)

// batchUploadDocumentCmd ingests every supported file in a directory.
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload-document [directory]",
	Short: "Ingest every supported file in a directory into the vector index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		reset, _ := cmd.Flags().GetBool("reset")

		documentService, index, err := newIngestStack(cfg)
		if err != nil {
			log.Fatalf("Failed to create vector index: %v", err)
		}
		if reset {
			if err := index.Reset(context.Background()); err != nil {
				log.Fatalf("Failed to reset index: %v", err)
			}
		}

		paths, err := filepath.Glob(filepath.Join(args[0], "*"))
		if err != nil {
			log.Fatalf("Failed to read directory: %v", err)
		}

		ingested := 0
		for _, path := range paths {
			format, ok := types.SourceFormatFromExt(filepath.Ext(path))
			if !ok {
				log.Printf("Skipping %s: unsupported format", path)
				continue
			}
			if err := ingestFile(documentService, cfg, path, format); err != nil {
				log.Printf("Failed to ingest %s: %v", path, err)
				continue
			}
			ingested++
		}
		log.Printf("Ingested %d of %d files\n", ingested, len(paths))
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)
	batchUploadDocumentCmd.Flags().BoolP("reset", "r", false, "Reset the index before ingesting")
}

func ingestFile(documentService *service.DocumentService, cfg *config.Config, sourcePath string, format types.SourceFormat) error {
	savedPath, err := utils.CopyFileWithTimestamp(sourcePath, cfg.UploadDir)
	if err != nil {
		return err
	}
	text, err := service.ExtractText(savedPath, format)
	if err != nil {
		return err
	}
	documentID := uuid.NewString()
	chunks, err := documentService.Ingest(context.Background(), documentID, filepath.Base(sourcePath), text, format)
	if err != nil {
		return err
	}
	log.Printf("Ingested %s as document %s (%d chunks)\n", sourcePath, documentID, len(chunks))
	return nil
}
