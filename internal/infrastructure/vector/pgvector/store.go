package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contractlens/review-core/internal/core/domain"
)

// insertBatchSize caps each insert transaction to 20 chunks.
const insertBatchSize = 20

// Store is a Postgres + pgvector backed implementation of the chunk storage
// and similarity search contract.
type Store struct {
	db *sql.DB
}

// New wraps an already-open *sql.DB. Callers are responsible for calling
// EnsureSchema once at startup.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InsertBatch stores chunks in groups of insertBatchSize, merging each
// chunk's metadata with chunk_index and indexed_at before persisting.
func (s *Store) InsertBatch(ctx context.Context, chunks []domain.StoredChunk) error {
	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.insertGroup(ctx, chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertGroup(ctx context.Context, group []domain.StoredChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, chunk := range group {
		meta := mergeMetadata(chunk.Metadata, chunk.ChunkIndexFromMetadata())
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}

		var embeddingArg any
		if chunk.Embedding != nil {
			embeddingArg = encodeVector(chunk.Embedding)
		}

		chunkIndex := chunk.ChunkIndexFromMetadata()
		if chunkIndex < 0 {
			chunkIndex = 0
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO chunks (id, document_id, chunk_index, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
ON CONFLICT (document_id, chunk_index) DO UPDATE
SET content = EXCLUDED.content, embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata
`, chunk.ID, chunk.DocumentID, chunkIndex, chunk.Content, embeddingArg, metaJSON, chunk.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert tx: %w", err)
	}
	return nil
}

func mergeMetadata(meta map[string]any, chunkIndex int) map[string]any {
	out := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	if chunkIndex >= 0 {
		out["chunk_index"] = chunkIndex
	}
	out["indexed_at"] = time.Now().UTC().Format(time.RFC3339)
	return out
}

// MatchDocuments returns the top-count globally most similar chunks whose
// similarity exceeds threshold, implementing `match_documents`.
func (s *Store) MatchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int) ([]domain.RetrievedChunk, error) {
	return s.matchDocuments(ctx, queryEmbedding, threshold, count, "")
}

// MatchDocumentsInDoc implements `match_documents_in_doc`; an empty
// documentID behaves like MatchDocuments.
func (s *Store) MatchDocumentsInDoc(ctx context.Context, queryEmbedding []float32, threshold float64, count int, documentID string) ([]domain.RetrievedChunk, error) {
	return s.matchDocuments(ctx, queryEmbedding, threshold, count, documentID)
}

func (s *Store) matchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int, documentID string) ([]domain.RetrievedChunk, error) {
	vec := encodeVector(queryEmbedding)
	query := `
SELECT document_id, chunk_index, content, metadata, 1 - (embedding <=> $1::vector) AS similarity
FROM chunks
WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) > $2
`
	args := []any{vec, threshold}
	if documentID != "" {
		query += " AND document_id = $3"
		args = append(args, documentID)
	}
	query += fmt.Sprintf(" ORDER BY similarity DESC LIMIT $%d", len(args)+1)
	args = append(args, count)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("match documents query: %w", err)
	}
	defer rows.Close()

	var out []domain.RetrievedChunk
	for rows.Next() {
		var (
			docID, content string
			chunkIndex     int
			metaRaw        []byte
			similarity     float64
		)
		if err := rows.Scan(&docID, &chunkIndex, &content, &metaRaw, &similarity); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		meta := decodeMetadata(metaRaw)
		out = append(out, domain.RetrievedChunk{
			DocumentID: docID,
			Filename:   stringFromMeta(meta, "filename"),
			Category:   stringFromMeta(meta, "category"),
			Text:       content,
			Score:      similarity,
			ChunkIndex: chunkIndex,
		})
	}
	return out, rows.Err()
}

// GetDocumentChunks implements `get_document_chunks`: all chunks for a
// document ordered by chunk_index, each with whether its embedding is set.
func (s *Store) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.StoredChunk, []bool, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, document_id, content, metadata, created_at, (embedding IS NOT NULL) AS has_embedding
FROM chunks
WHERE document_id = $1
ORDER BY chunk_index ASC
`, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("get document chunks query: %w", err)
	}
	defer rows.Close()

	var chunks []domain.StoredChunk
	var hasEmbedding []bool
	for rows.Next() {
		var chunk domain.StoredChunk
		var metaRaw []byte
		var embeddingPresent bool
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &metaRaw, &chunk.CreatedAt, &embeddingPresent); err != nil {
			return nil, nil, fmt.Errorf("scan document chunk: %w", err)
		}
		chunk.Metadata = decodeMetadata(metaRaw)
		chunks = append(chunks, chunk)
		hasEmbedding = append(hasEmbedding, embeddingPresent)
	}
	return chunks, hasEmbedding, rows.Err()
}

// DeleteDocumentVectors removes every chunk belonging to documentID.
func (s *Store) DeleteDocumentVectors(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document vectors: %w", err)
	}
	return nil
}

// IndexStats reports total chunk count and how many carry an embedding.
func (s *Store) IndexStats(ctx context.Context, documentID string) (total, indexed int, err error) {
	row := s.db.QueryRowContext(ctx, `
SELECT count(*), count(embedding)
FROM chunks
WHERE document_id = $1
`, documentID)
	if err := row.Scan(&total, &indexed); err != nil {
		return 0, 0, fmt.Errorf("index stats query: %w", err)
	}
	return total, indexed, nil
}

func decodeMetadata(raw []byte) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func stringFromMeta(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
