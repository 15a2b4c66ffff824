package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contractlens/review-core/internal/core/domain"
)

type fixedChunker struct {
	chunks []domain.Chunk
}

func (c fixedChunker) Split(string) []domain.Chunk { return c.chunks }

func chunksOf(n int) []domain.Chunk {
	out := make([]domain.Chunk, n)
	for i := range out {
		out[i] = domain.Chunk{Content: strings.Repeat("条款内容", 10), ChunkIndex: i}
	}
	return out
}

// scriptedCompleter returns ChatJSON results in call order, one entry per
// call, except that a byContent entry whose key occurs in the user prompt is
// returned instead; an entry may carry an error instead of a payload. Chat is
// unused by the orchestrator and always errors if called.
type scriptedCompleter struct {
	mu        sync.Mutex
	results   []chatJSONResult
	byContent map[string]chatJSONResult
	calls     int32
	delay     time.Duration
}

type chatJSONResult struct {
	payload map[string]any
	err     error
}

func (c *scriptedCompleter) Chat(ctx context.Context, system, user string, jsonMode bool, temperature float64, maxRetries int) (string, error) {
	return "", errors.New("Chat not scripted")
}

func (c *scriptedCompleter) ChatJSON(ctx context.Context, system, user string, temperature float64, maxRetries int) (map[string]any, error) {
	n := atomic.AddInt32(&c.calls, 1) - 1
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, r := range c.byContent {
		if strings.Contains(user, key) {
			return r.payload, r.err
		}
	}
	if int(n) >= len(c.results) {
		return map[string]any{}, nil
	}
	r := c.results[n]
	return r.payload, r.err
}

func riskPayload(clause, description string) map[string]any {
	return map[string]any{
		"score": float64(70),
		"risks": []any{
			map[string]any{
				"level":       "high",
				"title":       "付款条款风险",
				"clause":      clause,
				"description": description,
			},
		},
	}
}

func TestMapPhaseSubstitutesNeutralOutcomeOnChunkError(t *testing.T) {
	chunks := []domain.Chunk{
		{Content: strings.Repeat("条款内容", 10) + "甲段", ChunkIndex: 0},
		{Content: strings.Repeat("条款内容", 10) + "乙段", ChunkIndex: 1},
	}
	llm := &scriptedCompleter{byContent: map[string]chatJSONResult{
		"甲段": {payload: riskPayload("货到付款且无明确期限约定", "未约定具体付款期限，存在拖欠风险")},
		"乙段": {err: errors.New("upstream 500")},
	}}
	orch := NewAnalysisOrchestrator(fixedChunker{chunks: chunks}, llm, nil, nil)

	outcomes, err := orch.mapPhase(context.Background(), chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if len(outcomes[0].risks) != 1 {
		t.Fatalf("expected chunk 0 to carry its extracted risk, got %+v", outcomes[0])
	}
	if outcomes[1].score != 50 || outcomes[1].summary != "该片段分析跳过" {
		t.Fatalf("expected chunk 1 to fall back to the neutral placeholder, got %+v", outcomes[1])
	}
}

func TestMapPhaseReturnsErrorWhenCallerCancels(t *testing.T) {
	llm := &scriptedCompleter{delay: 200 * time.Millisecond}
	orch := NewAnalysisOrchestrator(fixedChunker{chunks: chunksOf(4)}, llm, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcomes, err := orch.mapPhase(ctx, chunksOf(4))
	if err == nil {
		t.Fatal("expected mapPhase to surface the caller's cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if outcomes != nil {
		t.Fatalf("expected partial outcomes to be discarded, got %+v", outcomes)
	}
}

func TestAnalyzeTransitionsToErrorOnCallerCancel(t *testing.T) {
	llm := &scriptedCompleter{delay: 200 * time.Millisecond}
	orch := NewAnalysisOrchestrator(fixedChunker{chunks: chunksOf(4)}, llm, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := orch.Analyze(ctx, "doc-1", "irrelevant since Split is stubbed")
	if err == nil {
		t.Fatal("expected Analyze to return an error on caller cancellation")
	}
}

func TestAnalyzeStreamEmitsErrorEventOnCallerCancel(t *testing.T) {
	llm := &scriptedCompleter{delay: 200 * time.Millisecond}
	orch := NewAnalysisOrchestrator(fixedChunker{chunks: chunksOf(4)}, llm, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	events, err := orch.AnalyzeStream(ctx, "doc-1", "text")
	if err != nil {
		t.Fatalf("unexpected error starting stream: %v", err)
	}

	var sawError bool
	for ev := range events {
		if ev.Stage == domain.StageError {
			sawError = true
		}
		if ev.Stage == domain.StageResult {
			t.Fatal("expected no result event once the caller cancelled")
		}
	}
	if !sawError {
		t.Fatal("expected a StageError event on the stream")
	}
}

func TestReducePhaseDegradesToChunkAggregateOnReducerFailure(t *testing.T) {
	llm := &scriptedCompleter{results: []chatJSONResult{
		{err: errors.New("reducer unavailable")},
	}}
	orch := NewAnalysisOrchestrator(fixedChunker{}, llm, nil, nil)

	outcomes := []chunkOutcome{
		{index: 0, score: 80, summary: "片段一摘要", risks: []domain.Risk{
			{Level: domain.RiskHigh, Title: "风险A", Clause: "付款条款缺少明确期限约定内容", Description: "未约定付款期限，存在拖欠风险，需补充具体条款并明确逾期付款的违约责任"},
		}},
		{index: 1, score: 60, summary: "片段二摘要"},
	}

	report, degraded := orch.reducePhase(context.Background(), outcomes)
	if !degraded {
		t.Fatal("expected reducePhase to report degraded=true when the reducer call fails")
	}
	if report.Score != 70 {
		t.Fatalf("expected averaged score 70, got %d", report.Score)
	}
	if len(report.Risks) != 1 {
		t.Fatalf("expected the single valid risk to survive aggregation, got %+v", report.Risks)
	}
	if !strings.Contains(report.Summary, "降级") {
		t.Fatalf("expected degraded summary to mention the fallback, got %q", report.Summary)
	}
}

func TestAnalyzeChunkDropsShortClauseAndKeepsShortDescription(t *testing.T) {
	llm := &scriptedCompleter{results: []chatJSONResult{
		{payload: map[string]any{
			"score": float64(50),
			"risks": []any{
				map[string]any{"title": "太短的条款", "clause": "短", "description": "这是一个足够长的风险描述用于测试保留逻辑是否正常工作"},
				map[string]any{"title": "太短的描述", "clause": "这是一个足够长可以通过最小长度校验的条款文本", "description": "太短"},
			},
		}},
	}}
	orch := NewAnalysisOrchestrator(fixedChunker{}, llm, nil, nil)

	outcome := orch.analyzeChunk(context.Background(), 0, domain.Chunk{Content: "条款"})
	if len(outcome.risks) != 1 {
		t.Fatalf("expected exactly one risk to survive (short clause dropped, short description kept), got %+v", outcome.risks)
	}
	if outcome.risks[0].Title != "太短的描述" {
		t.Fatalf("expected the short-description risk to be the one kept, got %+v", outcome.risks[0])
	}
}

func TestAnalyzeChunkLogsWarningsForDroppedAndFlaggedRisks(t *testing.T) {
	llm := &scriptedCompleter{results: []chatJSONResult{
		{payload: map[string]any{
			"score": float64(50),
			"risks": []any{
				map[string]any{"title": "太短的条款", "clause": "短", "description": "这是一个足够长的风险描述用于测试日志记录是否正常工作"},
			},
		}},
	}}

	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	orch := NewAnalysisOrchestrator(fixedChunker{}, llm, nil, logger)

	orch.analyzeChunk(context.Background(), 0, domain.Chunk{Content: "条款"})

	if !strings.Contains(buf.String(), "clause too short") {
		t.Fatalf("expected a logged warning for the dropped risk, got log output:\n%s", buf.String())
	}
}

func TestNormalizeReducedReportLogsWarningOnFinalValidationDrop(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	raw := map[string]any{
		"score": float64(80),
		"risks": []any{
			map[string]any{"title": "太短", "clause": "短", "description": "这是一个足够长的风险描述用于测试最终校验阶段的丢弃日志"},
		},
	}
	report := normalizeReducedReport(logger, raw, nil)
	if len(report.Risks) != 0 {
		t.Fatalf("expected the short-clause risk to be dropped at final validation, got %+v", report.Risks)
	}
	if !strings.Contains(buf.String(), "risk dropped at final validation") {
		t.Fatalf("expected a logged warning, got log output:\n%s", buf.String())
	}
}
