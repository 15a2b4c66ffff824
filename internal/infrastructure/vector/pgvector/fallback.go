package pgvector

import (
	"context"
	"fmt"
	"sort"

	"github.com/contractlens/review-core/internal/core/domain"
)

// FallbackSearch loads every embedded chunk scoped to documentID (or every
// embedded chunk globally when documentID is empty) and computes cosine
// similarity in-process, used when the server-side similarity query fails.
func (s *Store) FallbackSearch(ctx context.Context, queryEmbedding []float32, documentID string, count int) ([]domain.RetrievedChunk, error) {
	query := `
SELECT document_id, chunk_index, content, metadata, embedding
FROM chunks
WHERE embedding IS NOT NULL
`
	args := []any{}
	if documentID != "" {
		query += " AND document_id = $1"
		args = append(args, documentID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fallback search query: %w", err)
	}
	defer rows.Close()

	var candidates []domain.RetrievedChunk
	for rows.Next() {
		var (
			docID, content string
			chunkIndex     int
			metaRaw        []byte
			embeddingRaw   string
		)
		if err := rows.Scan(&docID, &chunkIndex, &content, &metaRaw, &embeddingRaw); err != nil {
			return nil, fmt.Errorf("scan fallback row: %w", err)
		}
		vec, err := decodeVector(embeddingRaw)
		if err != nil {
			continue
		}
		meta := decodeMetadata(metaRaw)
		candidates = append(candidates, domain.RetrievedChunk{
			DocumentID: docID,
			Filename:   stringFromMeta(meta, "filename"),
			Category:   stringFromMeta(meta, "category"),
			Text:       content,
			Score:      CosineSimilarity(queryEmbedding, vec),
			ChunkIndex: chunkIndex,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if count > 0 && len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates, nil
}
