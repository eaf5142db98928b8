/*
Copyright © 2025 daivikpurani
*/
package cmd

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/daivikpurani/AI-Tutor/config"
	"github.com/daivikpurani/AI-Tutor/database"
	"github.com/daivikpurani/AI-Tutor/handler"
	"github.com/daivikpurani/AI-Tutor/service"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tutoring server",
	Long:  `Starts the HTTP and WebSocket server that answers learner questions`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		embedder := service.NewOpenAIEmbedder(
			cfg.AIEndpoint,
			cfg.OpenAIAPIKey,
			cfg.EmbeddingModel,
			cfg.EmbeddingDimension,
			cfg.EmbeddingTimeout,
		)

		var index database.VectorIndex
		switch cfg.VectorIndex {
		case "weaviate":
			index, err = database.NewWeaviateIndex(cfg.WeaviateStoreConfig, cfg.EmbeddingDimension)
			if err != nil {
				log.Fatalf("Failed to connect to Weaviate: %v", err)
			}
		default:
			index, err = database.NewMemoryIndex(cfg.EmbeddingDimension)
			if err != nil {
				log.Fatalf("Failed to create vector index: %v", err)
			}
		}

		var aiService service.AIService
		switch cfg.AIBackend {
		case "gemini":
			aiService, err = service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
			if err != nil {
				log.Fatalf("Failed to create Gemini service: %v", err)
			}
		default:
			aiService = service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model)
		}

		sessions := service.NewMemorySessionStore(cfg.MaxHistoryTurns)
		chunker := service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
		documentService := service.NewDocumentService(chunker, embedder, index)
		queryHandler := service.NewQueryHandler(embedder, index, aiService, sessions, service.QueryHandlerConfig{
			MaxContextChunks:    cfg.MaxContextChunks,
			SimilarityThreshold: cfg.SimilarityThreshold,
			EmbeddingTimeout:    cfg.EmbeddingTimeout,
			GenerationTimeout:   cfg.GenerationTimeout,
		})
		wsService := service.NewWebSocketService(queryHandler)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		uploadHandler := handler.NewUploadHandler(documentService, cfg.UploadDir)
		chatHandler := handler.NewChatHandler(queryHandler)
		documentHandler := handler.NewDocumentHandler(documentService)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/chat", chatHandler.HandleChat)
			apiV1.POST("/upload", uploadHandler.HandleUpload)
			apiV1.GET("/documents", documentHandler.HandleList)
			apiV1.DELETE("/documents/:id", documentHandler.HandleDelete)
		}

		router.GET("/api/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
		router.GET("/ws/chat", func(c *gin.Context) {
			wsService.HandleChat(c.Writer, c.Request)
		})

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
