package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/daivikpurani/AI-Tutor/config"
	"github.com/daivikpurani/AI-Tutor/types"
)

const BATCH_SIZE = 200

var (
	CHUNK_CLASS        = "CourseChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "ordinal", DataType: []string{"int"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "filename", DataType: []string{"text"}},
			{Name: "charStart", DataType: []string{"int"}},
			{Name: "charEnd", DataType: []string{"int"}},
		},
		// vectors are supplied by the embedder, not a weaviate module
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
)

// WeaviateIndex implements VectorIndex against a Weaviate instance. Weaviate's
// certainty equals (1+cosine)/2, the same [0,1] scale CosineScore uses, so
// minScore is passed through unchanged.
type WeaviateIndex struct {
	client    *weaviate.Client
	dimension int
}

func NewWeaviateIndex(cfg config.WeaviateStoreConfig, dimension int) (*WeaviateIndex, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wcfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
		wcfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     cfg.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		if err := client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
		}
	}
	return &WeaviateIndex{client: client, dimension: dimension}, nil
}

func (s *WeaviateIndex) Dimension() int { return s.dimension }

// chunkObjectID derives a stable weaviate object ID from the chunk ID, so
// re-inserting a chunk overwrites the previous object.
func chunkObjectID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func (s *WeaviateIndex) Insert(ctx context.Context, chunks []types.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != s.dimension {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
				c.ID, len(c.Embedding), s.dimension, types.ErrDimensionMismatch)
		}
	}
	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}
		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			c := chunks[j]
			batcher = batcher.WithObjects(&models.Object{
				ID:    strfmt.UUID(chunkObjectID(c.ID)),
				Class: CHUNK_CLASS,
				Properties: map[string]interface{}{
					"chunkId":    c.ID,
					"documentId": c.DocumentID,
					"ordinal":    c.Ordinal,
					"content":    c.Text,
					"filename":   c.Metadata.DocumentFilename,
					"charStart":  c.Metadata.CharStart,
					"charEnd":    c.Metadata.CharEnd,
				},
				Vector: c.Embedding,
			})
		}
		resp, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		// weaviate reports per-object failures with a nil top-level error
		for _, obj := range resp {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert object %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
			}
		}
	}
	return nil
}

func (s *WeaviateIndex) Query(ctx context.Context, vector []float32, k int, minScore float32) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	fields := []graphql.Field{
		{Name: "chunkId"},
		{Name: "documentId"},
		{Name: "ordinal"},
		{Name: "content"},
		{Name: "filename"},
		{Name: "charStart"},
		{Name: "charEnd"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithCertainty(minScore)
	result, err := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var scored []ScoredChunk
	get, _ := result.Data["Get"].(map[string]interface{})
	if data, ok := get[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			sc := ScoredChunk{
				Chunk: types.Chunk{
					ID:         asString(obj["chunkId"]),
					DocumentID: asString(obj["documentId"]),
					Ordinal:    asInt(obj["ordinal"]),
					Text:       asString(obj["content"]),
					Metadata: types.ChunkMetadata{
						CharStart:        asInt(obj["charStart"]),
						CharEnd:          asInt(obj["charEnd"]),
						DocumentFilename: asString(obj["filename"]),
					},
				},
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if cert, ok := additional["certainty"].(float64); ok {
					sc.Score = float32(cert)
				}
			}
			scored = append(scored, sc)
		}
	}
	// weaviate orders by certainty, ties land in arbitrary order
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Chunk.DocumentID != scored[j].Chunk.DocumentID {
			return scored[i].Chunk.DocumentID < scored[j].Chunk.DocumentID
		}
		return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
	})
	return scored, nil
}

func (s *WeaviateIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueText(documentID)).
		Do(ctx)
	return err
}

func (s *WeaviateIndex) Reset(ctx context.Context) error {
	if err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(ctx); err != nil {
		return fmt.Errorf("failed to delete %s class: %w", CHUNK_CLASS, err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create %s class: %w", CHUNK_CLASS, err)
	}
	return nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asInt(v interface{}) int {
	f, _ := v.(float64)
	return int(f)
}
