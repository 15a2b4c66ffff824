package usecase

import (
	"context"
	"fmt"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
)

const embedTextType = "document"

// Indexer implements the chunk-embed-store pipeline: it splits document
// text, embeds each chunk, and persists the result to the vector store,
// tolerating per-chunk embedding failures rather than failing the whole
// document.
type Indexer struct {
	chunker ports.Chunker
	embed   ports.Embedder
	store   ports.VectorStore
}

// NewIndexer wires the chunker, embedder and vector store used to build a
// document's searchable index.
func NewIndexer(chunker ports.Chunker, embed ports.Embedder, store ports.VectorStore) *Indexer {
	return &Indexer{chunker: chunker, embed: embed, store: store}
}

// IndexDocument chunks text, embeds each chunk and stores it, merging
// metadata into every stored chunk. It returns the chunk count and the
// stored chunks (with embeddings, where available).
func (idx *Indexer) IndexDocument(ctx context.Context, documentID, text string, metadata map[string]any) (int, []domain.StoredChunk, error) {
	chunks := idx.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := idx.embed.EmbedBatch(ctx, texts, embedTextType)
	if err != nil {
		return 0, nil, fmt.Errorf("embed document chunks: %w", err)
	}

	stored := make([]domain.StoredChunk, len(chunks))
	for i, c := range chunks {
		meta := make(map[string]any, len(metadata)+1)
		for k, v := range metadata {
			meta[k] = v
		}
		meta["chunk_index"] = c.ChunkIndex

		var embedding []float32
		if i < len(embeddings) {
			embedding = embeddings[i]
		}

		stored[i] = domain.StoredChunk{
			ID:         fmt.Sprintf("%s-%d", documentID, c.ChunkIndex),
			DocumentID: documentID,
			Content:    c.Content,
			Embedding:  embedding,
			Metadata:   meta,
		}
	}

	if err := idx.store.InsertBatch(ctx, stored); err != nil {
		return 0, nil, fmt.Errorf("persist document chunks: %w", err)
	}

	return len(stored), stored, nil
}

// Reindex discards a document's existing chunks and rebuilds the index from
// scratch; it replaces rather than merges.
func (idx *Indexer) Reindex(ctx context.Context, documentID, text string) (int, []domain.StoredChunk, error) {
	if err := idx.store.DeleteDocumentVectors(ctx, documentID); err != nil {
		return 0, nil, fmt.Errorf("clear existing index: %w", err)
	}
	return idx.IndexDocument(ctx, documentID, text, nil)
}

// IndexStats reports how many of a document's chunks are indexed, and
// whether every chunk carries an embedding.
func (idx *Indexer) IndexStats(ctx context.Context, documentID string) (total, indexed int, fullyIndexed bool, err error) {
	total, indexed, err = idx.store.IndexStats(ctx, documentID)
	if err != nil {
		return 0, 0, false, err
	}
	return total, indexed, total > 0 && total == indexed, nil
}
