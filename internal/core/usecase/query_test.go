package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/contractlens/review-core/internal/core/domain"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (e fakeEmbedder) Embed(ctx context.Context, text, textType string) ([]float32, error) {
	return e.vector, e.err
}

func (e fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, textType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, e.err
}

// scopedStore records which scoped/unscoped match method the query pipeline
// called, returning documentID-specific hits for MatchDocumentsInDoc and
// corpus-wide hits for MatchDocuments.
type scopedStore struct {
	inDocHits     []domain.RetrievedChunk
	allDocsHits   []domain.RetrievedChunk
	fallbackHits  []domain.RetrievedChunk
	sawDocumentID string
	sawUnscoped   bool
}

func (s *scopedStore) InsertBatch(ctx context.Context, chunks []domain.StoredChunk) error { return nil }

func (s *scopedStore) MatchDocuments(ctx context.Context, queryEmbedding []float32, threshold float64, count int) ([]domain.RetrievedChunk, error) {
	s.sawUnscoped = true
	return s.allDocsHits, nil
}

func (s *scopedStore) MatchDocumentsInDoc(ctx context.Context, queryEmbedding []float32, threshold float64, count int, documentID string) ([]domain.RetrievedChunk, error) {
	s.sawDocumentID = documentID
	return s.inDocHits, nil
}

func (s *scopedStore) FallbackSearch(ctx context.Context, queryEmbedding []float32, documentID string, count int) ([]domain.RetrievedChunk, error) {
	return s.fallbackHits, nil
}

func (s *scopedStore) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.StoredChunk, []bool, error) {
	return nil, nil, nil
}

func (s *scopedStore) DeleteDocumentVectors(ctx context.Context, documentID string) error { return nil }

func (s *scopedStore) IndexStats(ctx context.Context, documentID string) (int, int, error) {
	return 0, 0, nil
}

type fakeChatCompleter struct {
	answer string
	err    error
}

func (f fakeChatCompleter) Chat(ctx context.Context, system, user string, jsonMode bool, temperature float64, maxRetries int) (string, error) {
	return f.answer, f.err
}

func (f fakeChatCompleter) ChatJSON(ctx context.Context, system, user string, temperature float64, maxRetries int) (map[string]any, error) {
	return nil, errors.New("ChatJSON not scripted")
}

func TestQueryScopesRetrievalToDocumentIDWhenProvided(t *testing.T) {
	store := &scopedStore{inDocHits: []domain.RetrievedChunk{
		{DocumentID: "doc-1", Text: "第一条 付款期限为30天", Score: 0.9},
	}}
	svc := NewQueryContractService(fakeEmbedder{vector: []float32{0.1}}, store, nil, fakeChatCompleter{answer: "付款期限为30天"})

	answer, err := svc.Query(context.Background(), "付款期限是多久？", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.sawDocumentID != "doc-1" {
		t.Fatalf("expected MatchDocumentsInDoc to be called with doc-1, got %q", store.sawDocumentID)
	}
	if store.sawUnscoped {
		t.Fatal("expected the unscoped corpus-wide search to be skipped when documentID is set")
	}
	if len(answer.Sources) != 1 || answer.Sources[0].DocumentID != "doc-1" {
		t.Fatalf("expected the answer to cite only the scoped document's chunk, got %+v", answer.Sources)
	}
}

func TestQuerySearchesAcrossCorpusWhenDocumentIDEmpty(t *testing.T) {
	store := &scopedStore{allDocsHits: []domain.RetrievedChunk{
		{DocumentID: "doc-2", Text: "违约责任：逾期每日按千分之一支付违约金", Score: 0.8},
	}}
	svc := NewQueryContractService(fakeEmbedder{vector: []float32{0.1}}, store, nil, fakeChatCompleter{answer: "逾期每日按千分之一支付违约金"})

	_, err := svc.Query(context.Background(), "违约责任如何约定？", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.sawUnscoped {
		t.Fatal("expected the corpus-wide MatchDocuments to be called when documentID is empty")
	}
	if store.sawDocumentID != "" {
		t.Fatalf("expected MatchDocumentsInDoc not to be called, got documentID %q", store.sawDocumentID)
	}
}

func TestQueryFallsBackToFallbackSearchWhenPrimaryMatchEmpty(t *testing.T) {
	store := &scopedStore{
		inDocHits:    nil,
		fallbackHits: []domain.RetrievedChunk{{DocumentID: "doc-1", Text: "保密条款", Score: 0.4}},
	}
	svc := NewQueryContractService(fakeEmbedder{vector: []float32{0.1}}, store, nil, fakeChatCompleter{answer: "保密条款适用"})

	answer, err := svc.Query(context.Background(), "保密义务是什么？", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answer.Sources) != 1 {
		t.Fatalf("expected fallback search results to ground the answer, got %+v", answer.Sources)
	}
}

func TestQueryReturnsNoAnswerWhenRetrievalFindsNothing(t *testing.T) {
	store := &scopedStore{}
	svc := NewQueryContractService(fakeEmbedder{vector: []float32{0.1}}, store, nil, fakeChatCompleter{answer: "unused"})

	answer, err := svc.Query(context.Background(), "不相关的问题", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != domain.NoAnswerText {
		t.Fatalf("expected the stock no-answer text, got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources, got %+v", answer.Sources)
	}
}
