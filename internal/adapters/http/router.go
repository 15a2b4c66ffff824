package httpadapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
	"github.com/contractlens/review-core/internal/core/usecase"
	"github.com/contractlens/review-core/internal/observability/metrics"
	"github.com/contractlens/review-core/internal/textmetrics"
)

// Router assembles the HTTP surface over the analysis, indexing, query and
// assist use cases.
type Router struct {
	analyzer  ports.ContractAnalyzer
	query     ports.ContractQueryService
	assist    ports.ContractAssistService
	indexer   ports.DocumentIndexer
	extractor ports.TextExtractor
	chunker   ports.Chunker

	service string
	metrics *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
}

// NewRouter wires every port the HTTP surface depends on.
func NewRouter(
	service string,
	analyzer ports.ContractAnalyzer,
	query ports.ContractQueryService,
	assist ports.ContractAssistService,
	indexer ports.DocumentIndexer,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	httpMetrics *metrics.HTTPServerMetrics,
	rateLimitRPS float64,
	rateLimitBurst int,
) *Router {
	return &Router{
		service:        service,
		analyzer:       analyzer,
		query:          query,
		assist:         assist,
		indexer:        indexer,
		extractor:      extractor,
		chunker:        chunker,
		metrics:        httpMetrics,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
	}
}

// Handler builds the routed, middleware-wrapped http.Handler. If the
// embedded OpenAPI document fails to load, validation is skipped and the
// failure is logged — a malformed document must never take the API down.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documents/upload", rt.upload)
	mux.HandleFunc("POST /documents/analyze-sync/{id}", rt.analyzeSync)
	mux.HandleFunc("POST /documents/analyze/{id}", rt.analyzeStream)
	mux.HandleFunc("POST /documents/query", rt.queryContract)
	mux.HandleFunc("POST /documents/reindex/{id}", rt.reindex)
	mux.HandleFunc("GET /documents/index-stats/{id}", rt.indexStats)
	mux.HandleFunc("POST /documents/export-docx", rt.exportDocx)
	mux.HandleFunc("POST /documents/assist", rt.assistContract)
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	var handler http.Handler = mux

	validate, err := newRequestValidationMiddleware()
	if err != nil {
		slog.Error("openapi validation disabled", "error", err)
	} else {
		handler = validate(handler)
	}

	handler = rateLimitMiddleware(rt.rateLimitRPS, rt.rateLimitBurst)(handler)
	handler = backpressureMiddleware(int64(rt.rateLimitBurst) * 5)(handler)
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	text, err := rt.extractor.Extract(r.Context(), header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}

	chunks := rt.chunker.Split(text)
	totalTokens := 0
	for _, c := range chunks {
		totalTokens += c.Tokens
	}
	avgChunkTokens := 0.0
	if len(chunks) > 0 {
		avgChunkTokens = float64(totalTokens) / float64(len(chunks))
	}

	writeJSON(w, http.StatusOK, uploadResponseDTO{
		ID:      uuid.NewString(),
		Name:    header.Filename,
		Status:  "ready",
		Content: text,
		Analysis: analysisSummaryDTO{
			Language:        textmetrics.DetectLanguage(text),
			CharCount:       len([]rune(text)),
			EstimatedTokens: textmetrics.EstimateTokens(text),
			ChunkCount:      len(chunks),
			AvgChunkTokens:  avgChunkTokens,
		},
	})
}

type analyzeRequest struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
}

func (rt *Router) analyzeSync(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	report, err := rt.analyzer.Analyze(r.Context(), documentIDOrPath(r, req.DocumentID), req.Text)
	if err != nil {
		// Callers expect a report shape back even when analysis failed outright.
		degraded := degradedReportOnError(err)
		rt.metrics.RecordAnalysisJob(rt.service, "error", time.Since(start), 0, 0)
		writeJSON(w, http.StatusOK, toReportDTO(degraded))
		return
	}
	rt.metrics.RecordAnalysisJob(rt.service, "complete", time.Since(start), len(rt.chunker.Split(req.Text)), len(report.Risks))
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

func degradedReportOnError(err error) domain.Report {
	return domain.Report{
		RiskLevel:          domain.OverallCritical,
		Summary:            fmt.Sprintf("分析过程中发生不可恢复的错误：%v", err),
		ContractProfile:    domain.NewUnknownContractProfile(),
		RiskCategories:     map[string][]string{},
		SignRecommendation: domain.SignNeedsReview,
	}
}

func (rt *Router) analyzeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	events, err := rt.analyzer.AnalyzeStream(r.Context(), documentIDOrPath(r, req.DocumentID), req.Text)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(w)
	for event := range events {
		payload, err := json.Marshal(toProgressEventDTO(event))
		if err != nil {
			continue
		}
		fmt.Fprintf(writer, "data: %s\n\n", payload)
		writer.Flush()
		flusher.Flush()
	}
}

func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return analyzeRequest{}, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return analyzeRequest{}, false
	}
	return req, true
}

func documentIDOrPath(r *http.Request, bodyID string) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	return bodyID
}

type queryRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id"`
}

func (rt *Router) queryContract(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.query.Query(r.Context(), req.Question, req.DocumentID)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordRAGObservation(rt.service, "query", len(answer.Sources), time.Since(start))

	writeJSON(w, http.StatusOK, toAnswerDTO(answer))
}

type reindexRequest struct {
	Text string `json:"text"`
}

func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	id := r.PathValue("id")
	count, _, err := rt.indexer.Reindex(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunkCount": count})
}

func (rt *Router) indexStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	total, indexed, fullyIndexed, err := rt.indexer.IndexStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalChunks":    total,
		"indexedChunks":  indexed,
		"isFullyIndexed": fullyIndexed,
	})
}

type exportRequestDTO struct {
	Content     string    `json:"content"`
	FileName    string    `json:"fileName"`
	Annotations []any     `json:"annotations"`
	Report      reportDTO `json:"report"`
}

func (rt *Router) exportDocx(w http.ResponseWriter, r *http.Request) {
	var req exportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	content, fileName := usecase.FormatReportAsText(usecase.ExportRequest{
		Report:   fromReportDTO(req.Report),
		Content:  req.Content,
		FileName: req.FileName,
	})
	writeJSON(w, http.StatusOK, map[string]string{"content": content, "fileName": fileName})
}

type assistRequest struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

func (rt *Router) assistContract(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	result, err := rt.assist.Assist(r.Context(), req.Text, req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
