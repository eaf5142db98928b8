package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/daivikpurani/AI-Tutor/database"
	"github.com/daivikpurani/AI-Tutor/types"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentService runs the ingestion pipeline: chunk, embed, index. Ingestion
// is all-or-nothing per document; a failure at any stage leaves nothing
// indexed for that document.
type DocumentService struct {
	chunker  *Chunker
	embedder Embedder
	index    database.VectorIndex

	mu        sync.RWMutex
	documents map[string]*types.Document
	charTotal map[string]int
}

func NewDocumentService(chunker *Chunker, embedder Embedder, index database.VectorIndex) *DocumentService {
	return &DocumentService{
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		documents: make(map[string]*types.Document),
		charTotal: make(map[string]int),
	}
}

// Ingest chunks extractedText, embeds every chunk and inserts them into the
// index as one batch. Chunk IDs are stable: documentID plus ordinal.
func (s *DocumentService) Ingest(ctx context.Context, documentID, filename, extractedText string, format types.SourceFormat) ([]types.Chunk, error) {
	text := NormalizeText(extractedText)
	if text == "" {
		return nil, types.ErrEmptyDocument
	}

	chunks, err := s.chunker.Split(text)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding document %s: %w", documentID, err)
	}

	chunkIDs := make([]string, len(chunks))
	totalChars := 0
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s:%d", documentID, chunks[i].Ordinal)
		chunks[i].DocumentID = documentID
		chunks[i].Embedding = vectors[i]
		chunks[i].Metadata.DocumentFilename = filename
		chunkIDs[i] = chunks[i].ID
		totalChars += len(chunks[i].Text)
	}

	if err := s.index.Insert(ctx, chunks); err != nil {
		// a multi-batch backend may have committed earlier batches before
		// failing; delete whatever landed so no partial document is indexed
		if delErr := s.index.DeleteByDocument(ctx, documentID); delErr != nil {
			log.Printf("cleanup after failed insert of document %s: %v", documentID, delErr)
		}
		return nil, fmt.Errorf("indexing document %s: %w", documentID, err)
	}

	s.mu.Lock()
	s.documents[documentID] = &types.Document{
		ID:           documentID,
		Filename:     filename,
		SourceFormat: format,
		UploadedAt:   time.Now(),
		ChunkIDs:     chunkIDs,
	}
	s.charTotal[documentID] = totalChars
	s.mu.Unlock()

	return chunks, nil
}

// Delete removes a document and cascades to every chunk in the index.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	s.mu.RLock()
	_, ok := s.documents[documentID]
	s.mu.RUnlock()
	if !ok {
		return ErrDocumentNotFound
	}
	if err := s.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document %s from index: %w", documentID, err)
	}
	s.mu.Lock()
	delete(s.documents, documentID)
	delete(s.charTotal, documentID)
	s.mu.Unlock()
	return nil
}

// List returns a summary per ingested document, ordered by upload time then ID.
func (s *DocumentService) List() []types.DocumentSummary {
	s.mu.RLock()
	summaries := make([]types.DocumentSummary, 0, len(s.documents))
	for id, doc := range s.documents {
		summaries = append(summaries, types.DocumentSummary{
			DocumentID:   doc.ID,
			Filename:     doc.Filename,
			SourceFormat: doc.SourceFormat,
			ChunkCount:   len(doc.ChunkIDs),
			TotalChars:   s.charTotal[id],
			UploadedAt:   doc.UploadedAt,
		})
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UploadedAt.Equal(summaries[j].UploadedAt) {
			return summaries[i].UploadedAt.Before(summaries[j].UploadedAt)
		}
		return summaries[i].DocumentID < summaries[j].DocumentID
	})
	return summaries
}
