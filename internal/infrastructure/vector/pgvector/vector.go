// Package pgvector persists chunks and their embeddings in Postgres using
// the pgvector extension, and implements cosine-similarity search with an
// in-process fallback when the server-side query fails.
package pgvector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encodeVector renders a float32 vector as a pgvector literal, e.g.
// "[0.1,0.2,0.3]", suitable for a `$n::vector` cast in a query.
func encodeVector(v []float32) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// decodeVector parses a pgvector literal (as read back from the driver, e.g.
// "[0.1,0.2,0.3]") into a float32 slice.
func decodeVector(raw string) ([]float32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	if raw == "" {
		return []float32{}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("decode vector component %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). Mismatched-length or
// empty vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
