package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/observability/metrics"
)

type fakeAnalyzer struct {
	report domain.Report
	err    error
	events chan domain.ProgressEvent
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, documentID, text string) (domain.Report, error) {
	return f.report, f.err
}

func (f *fakeAnalyzer) AnalyzeStream(ctx context.Context, documentID, text string) (<-chan domain.ProgressEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

type fakeQuery struct {
	answer domain.Answer
	err    error
}

func (f *fakeQuery) Query(ctx context.Context, question, documentID string) (domain.Answer, error) {
	return f.answer, f.err
}

type fakeAssist struct {
	result string
	err    error
}

func (f *fakeAssist) Assist(ctx context.Context, text, action string) (string, error) {
	return f.result, f.err
}

type fakeIndexer struct {
	chunkCount     int
	total, indexed int
	fullyIndexed   bool
	err            error
}

func (f *fakeIndexer) IndexDocument(ctx context.Context, documentID, text string, metadata map[string]any) (int, []domain.StoredChunk, error) {
	return f.chunkCount, nil, f.err
}

func (f *fakeIndexer) Reindex(ctx context.Context, documentID, text string) (int, []domain.StoredChunk, error) {
	return f.chunkCount, nil, f.err
}

func (f *fakeIndexer) IndexStats(ctx context.Context, documentID string) (int, int, bool, error) {
	return f.total, f.indexed, f.fullyIndexed, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, mimeType string, body io.Reader) (string, error) {
	return f.text, f.err
}

type fakeChunker struct {
	chunks []domain.Chunk
}

func (f *fakeChunker) Split(text string) []domain.Chunk {
	return f.chunks
}

func newTestRouter(analyzer *fakeAnalyzer, query *fakeQuery, assist *fakeAssist, indexer *fakeIndexer) *Router {
	return &Router{
		analyzer:       analyzer,
		query:          query,
		assist:         assist,
		indexer:        indexer,
		extractor:      &fakeExtractor{text: "extracted text"},
		chunker:        &fakeChunker{chunks: []domain.Chunk{{Content: "a", Tokens: 10}, {Content: "b", Tokens: 20}}},
		service:        "test",
		metrics:        metrics.NewHTTPServerMetrics("test"),
		rateLimitRPS:   1000,
		rateLimitBurst: 1000,
	}
}

func TestHealthz(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	rt.healthz(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAnalyzeSyncSuccess(t *testing.T) {
	report := domain.Report{Score: 80, RiskLevel: domain.OverallLow, Summary: "ok"}
	rt := newTestRouter(&fakeAnalyzer{report: report}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(analyzeRequest{Text: "some contract text", DocumentID: "doc-1"})
	req := httptest.NewRequest(http.MethodPost, "/documents/analyze-sync/doc-1", bytes.NewReader(body))
	req.SetPathValue("id", "doc-1")
	rec := httptest.NewRecorder()

	rt.analyzeSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got reportDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Summary != "ok" {
		t.Errorf("expected summary %q, got %q", "ok", got.Summary)
	}
}

func TestAnalyzeSyncDegradesOnError(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{err: errors.New("upstream unavailable")}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(analyzeRequest{Text: "some contract text"})
	req := httptest.NewRequest(http.MethodPost, "/documents/analyze-sync/doc-1", bytes.NewReader(body))
	req.SetPathValue("id", "doc-1")
	rec := httptest.NewRecorder()

	rt.analyzeSync(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded report to still return 200, got %d", rec.Code)
	}
	var got reportDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RiskLevel != string(domain.OverallCritical) {
		t.Errorf("expected degraded report risk level %q, got %q", domain.OverallCritical, got.RiskLevel)
	}
	if !strings.Contains(got.Summary, "upstream unavailable") {
		t.Errorf("expected degraded summary to mention the error, got %q", got.Summary)
	}
}

func TestAnalyzeSyncRejectsEmptyText(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(analyzeRequest{Text: "   "})
	req := httptest.NewRequest(http.MethodPost, "/documents/analyze-sync/doc-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.analyzeSync(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", rec.Code)
	}
}

func TestAnalyzeStreamEmitsSSEEvents(t *testing.T) {
	events := make(chan domain.ProgressEvent, 2)
	events <- domain.ProgressEvent{Stage: domain.StageChunking, Progress: 10, Message: "chunking"}
	events <- domain.ProgressEvent{Stage: domain.StageComplete, Progress: 100, Message: "done"}
	close(events)

	rt := newTestRouter(&fakeAnalyzer{events: events}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(analyzeRequest{Text: "some contract text"})
	req := httptest.NewRequest(http.MethodPost, "/documents/analyze/doc-1", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.analyzeStream(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected SSE content type, got %q", ct)
	}
	body2 := rec.Body.String()
	if !strings.Contains(body2, "data: ") || !strings.Contains(body2, "chunking") || !strings.Contains(body2, "done") {
		t.Errorf("expected SSE payload to contain both progress events, got:\n%s", body2)
	}
}

func TestQueryContractSuccess(t *testing.T) {
	answer := domain.Answer{
		Text:       "the liability cap is 2x fees",
		Confidence: 0.9,
		Sources:    []domain.Source{{DocumentID: "doc-1", ChunkIndex: 0, Excerpt: "liability", Score: 0.8}},
	}
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{answer: answer}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(queryRequest{Question: "what is the liability cap?", DocumentID: "doc-1"})
	req := httptest.NewRequest(http.MethodPost, "/documents/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.queryContract(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got answerDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(got.Sources))
	}
}

func TestQueryContractRejectsEmptyQuestion(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(queryRequest{Question: ""})
	req := httptest.NewRequest(http.MethodPost, "/documents/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.queryContract(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQueryContractMapsNotFoundError(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{err: domain.WrapError(domain.ErrDocumentNotFound, "query", domain.ErrDocumentNotFound)}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(queryRequest{Question: "anything"})
	req := httptest.NewRequest(http.MethodPost, "/documents/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.queryContract(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReindexSuccess(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{chunkCount: 5})

	body, _ := json.Marshal(reindexRequest{Text: "new contract text"})
	req := httptest.NewRequest(http.MethodPost, "/documents/reindex/doc-1", bytes.NewReader(body))
	req.SetPathValue("id", "doc-1")
	rec := httptest.NewRecorder()

	rt.reindex(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["chunkCount"] != 5 {
		t.Errorf("expected chunkCount 5, got %d", got["chunkCount"])
	}
}

func TestIndexStatsSuccess(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{total: 10, indexed: 7, fullyIndexed: false})

	req := httptest.NewRequest(http.MethodGet, "/documents/index-stats/doc-1", nil)
	req.SetPathValue("id", "doc-1")
	rec := httptest.NewRecorder()

	rt.indexStats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["isFullyIndexed"] != false {
		t.Errorf("expected isFullyIndexed false, got %v", got["isFullyIndexed"])
	}
}

func TestAssistContractSuccess(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{result: "summary text"}, &fakeIndexer{})

	body, _ := json.Marshal(assistRequest{Text: "some contract text", Action: "summary"})
	req := httptest.NewRequest(http.MethodPost, "/documents/assist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.assistContract(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["result"] != "summary text" {
		t.Errorf("expected result %q, got %q", "summary text", got["result"])
	}
}

func TestAssistContractRejectsEmptyText(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	body, _ := json.Marshal(assistRequest{Text: "", Action: "summary"})
	req := httptest.NewRequest(http.MethodPost, "/documents/assist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.assistContract(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportDocxSuccess(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	reqBody := exportRequestDTO{
		FileName: "custom.txt",
		Report:   reportDTO{Summary: "risk summary", RiskLevel: string(domain.OverallLow)},
	}
	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/documents/export-docx", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	rt.exportDocx(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["fileName"] != "custom.txt" {
		t.Errorf("expected fileName %q, got %q", "custom.txt", got["fileName"])
	}
	if !strings.Contains(got["content"], "risk summary") {
		t.Errorf("expected exported content to contain the summary, got %q", got["content"])
	}
}

func TestUploadExtractsAndSummarizes(t *testing.T) {
	rt := newTestRouter(&fakeAnalyzer{}, &fakeQuery{}, &fakeAssist{}, &fakeIndexer{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "contract.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("contract body"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	rt.upload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got uploadResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Content != "extracted text" {
		t.Errorf("expected extracted content, got %q", got.Content)
	}
	if got.Analysis.ChunkCount != 2 {
		t.Errorf("expected 2 chunks from the fake chunker, got %d", got.Analysis.ChunkCount)
	}
}
