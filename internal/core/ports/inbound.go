package ports

import (
	"context"

	"github.com/contractlens/review-core/internal/core/domain"
)

// ContractAnalyzer runs the map-reduce risk analysis over contract text,
// either returning the finished Report or streaming progress events.
type ContractAnalyzer interface {
	Analyze(ctx context.Context, documentID, text string) (domain.Report, error)
	AnalyzeStream(ctx context.Context, documentID, text string) (<-chan domain.ProgressEvent, error)
}

// ContractQueryService is the inbound contract for RAG question answering.
type ContractQueryService interface {
	Query(ctx context.Context, question, documentID string) (domain.Answer, error)
}

// ContractAssistService exposes the small single-shot LLM-backed helpers
// (summary, extract_terms, translate, clause_compare).
type ContractAssistService interface {
	Assist(ctx context.Context, text, action string) (string, error)
}

// DocumentIndexer is the inbound contract for indexing and reindexing a
// document's chunks into the vector store.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID, text string, metadata map[string]any) (int, []domain.StoredChunk, error)
	Reindex(ctx context.Context, documentID, text string) (int, []domain.StoredChunk, error)
	IndexStats(ctx context.Context, documentID string) (total, indexed int, fullyIndexed bool, err error)
}
