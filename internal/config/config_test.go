package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_RETRIEVAL_MODE", "")
	t.Setenv("RAG_HYBRID_CANDIDATES", "")
	t.Setenv("RAG_FUSION_RRF_K", "")
	t.Setenv("RAG_RERANK_TOP_N", "")
	t.Setenv("RAG_SIMILARITY_FLOOR", "")

	cfg := Load()
	if cfg.RAGRetrievalMode != "cosine" {
		t.Fatalf("expected default retrieval mode cosine, got %q", cfg.RAGRetrievalMode)
	}
	if cfg.RAGHybridCandidates != 30 {
		t.Fatalf("expected default hybrid candidates 30, got %d", cfg.RAGHybridCandidates)
	}
	if cfg.RAGFusionRRFK != 60 {
		t.Fatalf("expected default fusion rrf k 60, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGRerankTopN != 20 {
		t.Fatalf("expected default rerank top n 20, got %d", cfg.RAGRerankTopN)
	}
	if cfg.RAGSimilarityFloor != 0.5 {
		t.Fatalf("expected default similarity floor 0.5, got %v", cfg.RAGSimilarityFloor)
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RAG_RETRIEVAL_MODE", "hybrid")
	t.Setenv("RAG_HYBRID_CANDIDATES", "40")
	t.Setenv("RAG_FUSION_RRF_K", "75")
	t.Setenv("RAG_RERANK_TOP_N", "12")
	t.Setenv("RAG_SIMILARITY_FLOOR", "0.6")

	cfg := Load()
	if cfg.RAGRetrievalMode != "hybrid" {
		t.Fatalf("expected retrieval mode override, got %q", cfg.RAGRetrievalMode)
	}
	if cfg.RAGHybridCandidates != 40 {
		t.Fatalf("expected hybrid candidates 40, got %d", cfg.RAGHybridCandidates)
	}
	if cfg.RAGFusionRRFK != 75 {
		t.Fatalf("expected fusion rrf k 75, got %d", cfg.RAGFusionRRFK)
	}
	if cfg.RAGRerankTopN != 12 {
		t.Fatalf("expected rerank top n 12, got %d", cfg.RAGRerankTopN)
	}
	if cfg.RAGSimilarityFloor != 0.6 {
		t.Fatalf("expected similarity floor 0.6, got %v", cfg.RAGSimilarityFloor)
	}
}

func TestLoadChunkDefaults(t *testing.T) {
	t.Setenv("CHUNK_MAX_TOKENS", "")
	t.Setenv("CHUNK_OVERLAP_TOKENS", "")
	t.Setenv("CHUNK_MIN_TOKENS", "")

	cfg := Load()
	if cfg.ChunkMaxTokens != 6000 {
		t.Fatalf("expected default max chunk tokens 6000, got %d", cfg.ChunkMaxTokens)
	}
	if cfg.ChunkOverlap != 300 {
		t.Fatalf("expected default overlap tokens 300, got %d", cfg.ChunkOverlap)
	}
	if cfg.ChunkMinTokens != 800 {
		t.Fatalf("expected default min chunk tokens 800, got %d", cfg.ChunkMinTokens)
	}
}

func TestLoadRateLimitDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg := Load()
	if cfg.RateLimitRPS != 10 {
		t.Fatalf("expected default rate limit rps 10, got %v", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected default rate limit burst 20, got %d", cfg.RateLimitBurst)
	}
}
