package service

import (
	"strings"

	"github.com/daivikpurani/AI-Tutor/types"
)

// Chunker splits document text into overlapping, sentence-respecting chunks.
type Chunker struct {
	chunkSize    int // target max characters per chunk
	chunkOverlap int // characters re-included from the previous chunk
}

var DefaultChunkerConfig = struct {
	ChunkSize    int
	ChunkOverlap int
}{
	ChunkSize:    1000,
	ChunkOverlap: 200,
}

func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkerConfig.ChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// sentenceSpan is a half-open byte range into the source text. Spans partition
// the text exactly: each span starts where the previous one ends.
type sentenceSpan struct {
	start, end int
}

// Split chunks normalized text. Sentences are accumulated greedily until the
// next one would push the chunk past chunkSize; the following chunk re-includes
// trailing whole sentences totalling at most chunkOverlap characters. A single
// sentence longer than chunkSize is emitted as its own oversized chunk, never
// truncated. The union of chunk ranges covers the entire text.
func (c *Chunker) Split(text string) ([]types.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyDocument
	}
	sentences := splitSentences(text)

	var chunks []types.Chunk
	start := 0
	for start < len(sentences) {
		end := start
		for end < len(sentences) {
			if end > start && sentences[end].end-sentences[start].start > c.chunkSize {
				break
			}
			end++
		}

		charStart := sentences[start].start
		charEnd := sentences[end-1].end
		chunks = append(chunks, types.Chunk{
			Ordinal: len(chunks),
			Text:    text[charStart:charEnd],
			Metadata: types.ChunkMetadata{
				CharStart: charStart,
				CharEnd:   charEnd,
			},
		})
		if end >= len(sentences) {
			break
		}

		// walk back whole sentences for the overlap, keeping next > start so
		// every chunk advances and no two chunks share an exact range
		next := end
		if c.chunkOverlap > 0 {
			overlap := 0
			for next > start+1 {
				length := sentences[next-1].end - sentences[next-1].start
				if overlap+length > c.chunkOverlap {
					break
				}
				overlap += length
				next--
			}
		}
		start = next
	}
	return chunks, nil
}

// splitSentences partitions text into sentence spans. A sentence ends after a
// run of terminal punctuation (. ? !) followed by whitespace or end of text;
// inter-sentence whitespace belongs to the following span. Text without any
// terminal punctuation is one sentence.
func splitSentences(text string) []sentenceSpan {
	var spans []sentenceSpan
	start := 0
	i := 0
	for i < len(text) {
		ch := text[i]
		if ch != '.' && ch != '?' && ch != '!' {
			i++
			continue
		}
		j := i + 1
		for j < len(text) && (text[j] == '.' || text[j] == '?' || text[j] == '!') {
			j++
		}
		if j >= len(text) || isSpace(text[j]) {
			spans = append(spans, sentenceSpan{start, j})
			start = j
		}
		i = j
	}
	if start < len(text) {
		spans = append(spans, sentenceSpan{start, len(text)})
	}
	return spans
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

var normalizeReplacer = strings.NewReplacer(
	"\x00", "", // null character
	"\ufffd", "", // unicode replacement character
	"\x1b", "", // escape character
	"\r\n", "\n",
	"\r", "\n",
	"\f", "\n",
	"\t", " ",
)

// NormalizeText strips extraction artifacts and collapses runs of whitespace
// before chunking.
func NormalizeText(text string) string {
	cleaned := normalizeReplacer.Replace(text)
	for strings.Contains(cleaned, "  ") {
		cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	}
	for strings.Contains(cleaned, "\n\n\n") {
		cleaned = strings.ReplaceAll(cleaned, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(cleaned)
}
