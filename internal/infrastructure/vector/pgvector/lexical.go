package pgvector

import (
	"context"
	"fmt"

	"github.com/contractlens/review-core/internal/core/domain"
)

// SearchLexical is the full-text-search leg of the optional hybrid
// retrieval enrichment, ranking by Postgres's ts_rank against the GIN
// index built over chunk content.
func (s *Store) SearchLexical(ctx context.Context, queryText string, limit int, documentID string) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
SELECT document_id, chunk_index, content, metadata,
       ts_rank(to_tsvector('simple', content), websearch_to_tsquery('simple', $1)) AS rank
FROM chunks
WHERE to_tsvector('simple', content) @@ websearch_to_tsquery('simple', $1)
`
	args := []any{queryText}
	if documentID != "" {
		query += " AND document_id = $2"
		args = append(args, documentID)
	}
	query += fmt.Sprintf(" ORDER BY rank DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lexical search query: %w", err)
	}
	defer rows.Close()

	var out []domain.RetrievedChunk
	for rows.Next() {
		var (
			docID, content string
			chunkIndex     int
			metaRaw        []byte
			rank           float64
		)
		if err := rows.Scan(&docID, &chunkIndex, &content, &metaRaw, &rank); err != nil {
			return nil, fmt.Errorf("scan lexical row: %w", err)
		}
		meta := decodeMetadata(metaRaw)
		out = append(out, domain.RetrievedChunk{
			DocumentID: docID,
			Filename:   stringFromMeta(meta, "filename"),
			Category:   stringFromMeta(meta, "category"),
			Text:       content,
			Score:      rank,
			ChunkIndex: chunkIndex,
		})
	}
	return out, rows.Err()
}
