package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string `mapstructure:"port"`
	UploadDir  string `mapstructure:"upload_dir"`
	AIBackend  string `mapstructure:"ai_backend"` // "openai" or "gemini"
	AIEndpoint string `mapstructure:"ai_endpoint"`
	Model      string `mapstructure:"model"`

	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"gemini_api_keys"`

	EmbeddingModel     string `mapstructure:"embedding_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`

	ChunkSize           int           `mapstructure:"chunk_size"`
	ChunkOverlap        int           `mapstructure:"chunk_overlap"`
	MaxContextChunks    int           `mapstructure:"max_context_chunks"`
	SimilarityThreshold float32       `mapstructure:"similarity_threshold"`
	MaxHistoryTurns     int           `mapstructure:"max_history_turns"`
	GenerationTimeout   time.Duration `mapstructure:"generation_timeout"`
	EmbeddingTimeout    time.Duration `mapstructure:"embedding_timeout"`

	VectorIndex         string              `mapstructure:"vector_index"` // "memory" or "weaviate"
	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"` // bound to env var
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// Defaults tuned for text-embedding-3-small; similarity_threshold is on
	// the [0,1] cosine scale and must be recalibrated per embedding model.
	v.SetDefault("port", "8001")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("ai_backend", "openai")
	v.SetDefault("model", "gpt-3.5-turbo")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dimension", 1536)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("max_context_chunks", 5)
	v.SetDefault("similarity_threshold", 0.75)
	v.SetDefault("max_history_turns", 20)
	v.SetDefault("generation_timeout", "90s")
	v.SetDefault("embedding_timeout", "15s")
	v.SetDefault("vector_index", "memory")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d/%d",
			config.ChunkOverlap, config.ChunkSize)
	}

	return &config, nil
}
