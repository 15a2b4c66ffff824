package ports

import (
	"context"
	"io"

	"github.com/contractlens/review-core/internal/core/domain"
)

// Chunker splits raw contract text into structurally coherent chunks.
type Chunker interface {
	Split(text string) []domain.Chunk
}

// ChatCompleter issues chat-completion requests to the external LLM.
type ChatCompleter interface {
	Chat(ctx context.Context, system, user string, jsonMode bool, temperature float64, maxRetries int) (string, error)
	ChatJSON(ctx context.Context, system, user string, temperature float64, maxRetries int) (map[string]any, error)
}

// Embedder builds vectors for chunk content and query text.
type Embedder interface {
	Embed(ctx context.Context, text, textType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, textType string) ([][]float32, error)
}

// VectorStore persists chunks with their embeddings and performs similarity
// search.
type VectorStore interface {
	InsertBatch(ctx context.Context, chunks []domain.StoredChunk) error
	MatchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int) ([]domain.RetrievedChunk, error)
	MatchDocumentsInDoc(ctx context.Context, queryEmbedding []float32, threshold float64, count int, documentID string) ([]domain.RetrievedChunk, error)
	FallbackSearch(ctx context.Context, queryEmbedding []float32, documentID string, count int) ([]domain.RetrievedChunk, error)
	GetDocumentChunks(ctx context.Context, documentID string) ([]domain.StoredChunk, []bool, error)
	DeleteDocumentVectors(ctx context.Context, documentID string) error
	IndexStats(ctx context.Context, documentID string) (total, indexed int, err error)
}

// LexicalSearcher performs full-text search over chunk content, the lexical
// leg of the optional hybrid retrieval enrichment.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, queryText string, limit int, documentID string) ([]domain.RetrievedChunk, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor extracts plain text from an uploaded file's bytes.
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, body io.Reader) (string, error)
}

// IndexingQueue decouples asynchronous chunk indexing from the analysis
// request path.
type IndexingQueue interface {
	PublishIndexJob(ctx context.Context, documentID, text string) error
	SubscribeIndexJobs(ctx context.Context, handler func(ctx context.Context, documentID, text string) error) error
}
