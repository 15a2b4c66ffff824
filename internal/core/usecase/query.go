package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
	"github.com/contractlens/review-core/internal/textmetrics"
)

const (
	ragTopK               = 5
	ragSimilarityFloor    = 0.5
	ragContextTokenBudget = 4000
	ragMaxRetries         = 2
	hybridRRFK            = 60
)

// QueryContractService implements the grounded question-answering
// pipeline: embed the question, retrieve relevant chunks, assemble a
// token-bounded context and ask the LLM to answer strictly from it.
type QueryContractService struct {
	embed   ports.Embedder
	store   ports.VectorStore
	lexical ports.LexicalSearcher
	llm     ports.ChatCompleter
}

// NewQueryContractService wires the embedder, vector store, optional
// lexical searcher (nil disables hybrid retrieval) and chat completer.
func NewQueryContractService(embed ports.Embedder, store ports.VectorStore, lexical ports.LexicalSearcher, llm ports.ChatCompleter) *QueryContractService {
	return &QueryContractService{embed: embed, store: store, lexical: lexical, llm: llm}
}

// Query answers question by retrieving grounding chunks (scoped to
// documentID when non-empty) and asking the model to answer only from them.
func (q *QueryContractService) Query(ctx context.Context, question, documentID string) (domain.Answer, error) {
	queryEmbedding, err := q.embed.Embed(ctx, question, "query")
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embed question: %w", err)
	}

	chunks, err := q.retrieve(ctx, question, queryEmbedding, documentID)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(chunks) == 0 {
		return domain.NewNoAnswer(), nil
	}

	ragContext := buildRAGContext(chunks, ragContextTokenBudget)
	answerText, err := q.llm.Chat(ctx, ragSystemPrompt, ragUserPrompt(question, ragContext), false, 0.5, ragMaxRetries)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]domain.Source, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, domain.NewSource(c))
	}

	return domain.Answer{
		Text:          strings.TrimSpace(answerText),
		Confidence:    domain.MeanScore(chunks),
		Sources:       sources,
		ContextTokens: textmetrics.EstimateTokens(ragContext),
	}, nil
}

func (q *QueryContractService) retrieve(ctx context.Context, question string, queryEmbedding []float32, documentID string) ([]domain.RetrievedChunk, error) {
	semantic, err := q.semanticSearch(ctx, queryEmbedding, documentID)
	if err != nil {
		return nil, err
	}

	if q.lexical == nil {
		return semantic, nil
	}

	lexical, err := q.lexical.SearchLexical(ctx, question, ragTopK, documentID)
	if err != nil || len(lexical) == 0 {
		return semantic, nil
	}

	fused := fuseCandidatesRRF(semantic, lexical, hybridRRFK)
	reranked := rerankHybridCandidates(question, fused, ragTopK)
	return trimCandidates(reranked, ragTopK), nil
}

func (q *QueryContractService) semanticSearch(ctx context.Context, queryEmbedding []float32, documentID string) ([]domain.RetrievedChunk, error) {
	var (
		chunks []domain.RetrievedChunk
		err    error
	)
	if documentID != "" {
		chunks, err = q.store.MatchDocumentsInDoc(ctx, queryEmbedding, ragSimilarityFloor, ragTopK, documentID)
	} else {
		chunks, err = q.store.MatchDocuments(ctx, queryEmbedding, ragSimilarityFloor, ragTopK)
	}
	if err == nil && len(chunks) > 0 {
		return chunks, nil
	}

	fallback, fbErr := q.store.FallbackSearch(ctx, queryEmbedding, documentID, ragTopK)
	if fbErr != nil {
		if err != nil {
			return nil, fmt.Errorf("match documents: %w", err)
		}
		return nil, fmt.Errorf("fallback search: %w", fbErr)
	}
	return fallback, nil
}

// buildRAGContext concatenates chunk text under a similarity-percentage
// heading, stopping once the token budget is exhausted.
func buildRAGContext(chunks []domain.RetrievedChunk, tokenBudget int) string {
	var b strings.Builder
	used := 0
	for _, c := range chunks {
		snippet := fmt.Sprintf("\n\n---\n[相关度: %.1f%%]\n%s", c.Score*100, c.Text)
		tokens := textmetrics.EstimateTokens(snippet)
		if used > 0 && used+tokens > tokenBudget {
			break
		}
		b.WriteString(snippet)
		used += tokens
	}
	return strings.TrimSpace(b.String())
}
