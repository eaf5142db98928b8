package types

import "time"

// SourceFormat identifies the format a document's text was extracted from.
type SourceFormat string

const (
	FormatText     SourceFormat = "text"
	FormatMarkdown SourceFormat = "markdown"
	FormatPDF      SourceFormat = "pdf"
	FormatDocx     SourceFormat = "docx"
)

// SourceFormatFromExt maps a file extension (with leading dot) to a SourceFormat.
func SourceFormatFromExt(ext string) (SourceFormat, bool) {
	switch ext {
	case ".txt":
		return FormatText, true
	case ".md", ".markdown":
		return FormatMarkdown, true
	case ".pdf":
		return FormatPDF, true
	case ".docx", ".doc":
		return FormatDocx, true
	default:
		return "", false
	}
}

// Document represents an ingested course document. Documents are immutable
// once chunked; a re-upload creates a new document.
type Document struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	SourceFormat SourceFormat `json:"source_format"`
	UploadedAt   time.Time    `json:"uploaded_at"`
	ChunkIDs     []string     `json:"chunk_ids"`
}

// Chunk is the unit of retrieval: a contiguous, possibly-overlapping slice of
// a document's extracted text.
type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Ordinal    int           `json:"ordinal"`
	Text       string        `json:"text"`
	Embedding  []float32     `json:"embedding,omitempty"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// ChunkMetadata locates a chunk inside its source document. CharStart and
// CharEnd are byte offsets into the normalized extracted text, CharStart < CharEnd.
type ChunkMetadata struct {
	CharStart        int    `json:"char_start"`
	CharEnd          int    `json:"char_end"`
	DocumentFilename string `json:"document_filename"`
}

// DocumentSummary is what document listing endpoints return.
type DocumentSummary struct {
	DocumentID   string       `json:"document_id"`
	Filename     string       `json:"filename"`
	SourceFormat SourceFormat `json:"source_format"`
	ChunkCount   int          `json:"chunk_count"`
	TotalChars   int          `json:"total_chars"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}
