package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	compliancecatalog "github.com/contractlens/review-core/internal/compliance"
	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
)

const (
	mapConcurrency  = 4
	chunkTimeout    = 90 * time.Second
	reducerTimeout  = 90 * time.Second
	reducerMaxRisks = 80
	reducerMaxChars = 8000
)

// AnalysisOrchestrator implements the map-reduce contract review pipeline:
// it fans out per-chunk risk extraction with bounded concurrency and reduces
// the results into one consolidated Report, with strict fallback behavior
// when the reducer fails.
type AnalysisOrchestrator struct {
	chunker ports.Chunker
	llm     ports.ChatCompleter
	queue   ports.IndexingQueue
	logger  *slog.Logger
}

// NewAnalysisOrchestrator wires the chunker, LLM client and indexing queue
// used for the fire-and-forget post-analysis indexing step. queue may be nil
// when asynchronous indexing is not wired (e.g. in tests). logger may also be
// nil, in which case drop/quality-warning sites log nothing.
func NewAnalysisOrchestrator(chunker ports.Chunker, llm ports.ChatCompleter, queue ports.IndexingQueue, logger *slog.Logger) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{chunker: chunker, llm: llm, queue: queue, logger: logger}
}

// chunkOutcome is the validated result of analyzing one chunk, or the
// neutral placeholder substituted on chunk-level exception.
type chunkOutcome struct {
	index       int
	score       int
	summary     string
	risks       []domain.Risk
	keyTerms    []string
	suggestions []string
}

func neutralOutcome(index int) chunkOutcome {
	return chunkOutcome{index: index, score: 50, summary: "该片段分析跳过"}
}

// Analyze runs the full pipeline synchronously and returns the finished
// Report.
func (o *AnalysisOrchestrator) Analyze(ctx context.Context, documentID, text string) (domain.Report, error) {
	events, err := o.run(ctx, documentID, text, nil)
	if err != nil {
		return domain.Report{}, err
	}
	return events, nil
}

// AnalyzeStream runs the pipeline and emits a ProgressEvent at every state
// transition on the returned channel, which is closed after the terminal
// "result" or "error" event.
func (o *AnalysisOrchestrator) AnalyzeStream(ctx context.Context, documentID, text string) (<-chan domain.ProgressEvent, error) {
	out := make(chan domain.ProgressEvent, 8)
	go func() {
		defer close(out)
		report, err := o.run(ctx, documentID, text, out)
		if err != nil {
			out <- domain.NewErrorEvent(err.Error())
			return
		}
		out <- domain.NewResultEvent(report)
	}()
	return out, nil
}

func emit(events chan<- domain.ProgressEvent, stage domain.JobStage, message string) {
	if events == nil {
		return
	}
	events <- domain.NewProgressEvent(stage, message, -1)
}

func (o *AnalysisOrchestrator) run(ctx context.Context, documentID, text string, events chan<- domain.ProgressEvent) (domain.Report, error) {
	emit(events, domain.StageInit, "开始分析")

	emit(events, domain.StageChunking, "正在解析合同结构")
	chunks := o.chunker.Split(text)
	if len(chunks) == 0 {
		return emptyReport(), nil
	}

	emit(events, domain.StageMapping, fmt.Sprintf("正在逐段分析，共 %d 段", len(chunks)))
	outcomes, err := o.mapPhase(ctx, chunks)
	if err != nil {
		return domain.Report{}, err
	}

	emit(events, domain.StageReducing, "正在汇总生成报告")
	report, degraded := o.reducePhase(ctx, outcomes)
	if degraded {
		emit(events, domain.StageReducingDegraded, "汇总模型调用失败，已降级为片段聚合报告")
	}

	if o.queue != nil {
		emit(events, domain.StageIndexing, "正在后台建立索引")
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			_ = o.queue.PublishIndexJob(bgCtx, documentID, text)
		}()
	}

	emit(events, domain.StageComplete, "分析完成")
	return report, nil
}

func emptyReport() domain.Report {
	return domain.Report{
		Score:              0,
		RiskLevel:          domain.OverallCritical,
		Summary:            "未能从输入文本中解析出任何内容，无法生成分析报告",
		ContractProfile:    domain.NewUnknownContractProfile(),
		RiskCategories:     map[string][]string{},
		SignRecommendation: domain.SignNeedsReview,
	}
}

// mapPhase issues one chat request per chunk with bounded concurrency,
// preserving input order in the returned slice. A per-chunk 90s deadline
// expiring is absorbed into a neutral placeholder, but cancellation of the
// caller's own ctx aborts the whole analysis: outcomes are discarded and
// ctx.Err() is returned so run can transition to StageError.
func (o *AnalysisOrchestrator) mapPhase(ctx context.Context, chunks []domain.Chunk) ([]chunkOutcome, error) {
	outcomes := make([]chunkOutcome, len(chunks))
	sem := make(chan struct{}, mapConcurrency)
	done := make(chan struct{}, len(chunks))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		sem <- struct{}{}
		go func() {
			defer func() { <-sem; done <- struct{}{} }()
			outcomes[i] = o.analyzeChunk(ctx, i, chunk)
		}()
	}
	for range chunks {
		<-done
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (o *AnalysisOrchestrator) analyzeChunk(ctx context.Context, index int, chunk domain.Chunk) chunkOutcome {
	callCtx, cancel := context.WithTimeout(ctx, chunkTimeout)
	defer cancel()

	advisory := chunkContext(chunk)
	raw, err := o.llm.ChatJSON(callCtx, chunkSystemPrompt, chunkUserPrompt(advisory, chunk.Content), 0.3, 2)
	if err != nil {
		return neutralOutcome(index)
	}

	risks := parseRisks(getMapSlice(raw, "risks"))
	validated := make([]domain.Risk, 0, len(risks))
	for _, r := range risks {
		if utf8.RuneCountInString(strings.TrimSpace(r.Clause)) < domain.MinClauseChars {
			logWarn(o.logger, "risk dropped: clause too short", "chunk", index, "title", r.Title)
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(r.Description)) < domain.MinDescriptionChars {
			logWarn(o.logger, "risk kept with short description", "chunk", index, "title", r.Title)
		}
		validated = append(validated, r)
	}

	score := getInt(raw, "score")
	if score < 0 || score > 100 {
		score = domain.ClampScore(score)
	}

	return chunkOutcome{
		index:       index,
		score:       score,
		summary:     getString(raw, "summary"),
		risks:       validated,
		keyTerms:    getStringSlice(raw, "keyTerms"),
		suggestions: getStringSlice(raw, "suggestions"),
	}
}

// reducePhase consolidates per-chunk outcomes into a Report, degrading to a
// pure chunk aggregate when the reducer call fails.
func (o *AnalysisOrchestrator) reducePhase(ctx context.Context, outcomes []chunkOutcome) (domain.Report, bool) {
	sort.SliceStable(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	callCtx, cancel := context.WithTimeout(ctx, reducerTimeout)
	defer cancel()

	input := buildReducerInput(outcomes)
	raw, err := o.llm.ChatJSON(callCtx, consolidationSystemPrompt(len(outcomes)), input, 0.3, 1)
	if err != nil {
		return degradedReport(o.logger, outcomes), true
	}

	report := normalizeReducedReport(o.logger, raw, outcomes)
	return report, false
}

func buildReducerInput(outcomes []chunkOutcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		fmt.Fprintf(&b, "[片段%d] 评分=%d 摘要=%s\n", o.index, o.score, truncateRunes(o.summary, 200))
	}

	var flattenedRisks []domain.Risk
	for _, o := range outcomes {
		flattenedRisks = append(flattenedRisks, o.risks...)
	}
	if len(flattenedRisks) > reducerMaxRisks {
		flattenedRisks = flattenedRisks[:reducerMaxRisks]
	}
	for _, r := range flattenedRisks {
		fmt.Fprintf(&b, "风险[%s] %s | %s | %s | %s\n",
			r.Level, r.Title, truncateRunes(r.Clause, 120), truncateRunes(r.Description, 200), r.LegalBasis)
	}

	for _, o := range outcomes {
		for _, s := range o.suggestions {
			fmt.Fprintf(&b, "建议: %s\n", s)
		}
	}

	return truncateRunes(b.String(), reducerMaxChars)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func normalizeReducedReport(logger *slog.Logger, raw map[string]any, outcomes []chunkOutcome) domain.Report {
	score := domain.ClampScore(getInt(raw, "score"))
	riskLevel := domain.NormalizeRiskLevel(domain.OverallRiskLevel(getString(raw, "riskLevel")), score)

	risks := validRisks(logger, parseRisks(getMapSlice(raw, "risks")))
	if len(risks) == 0 {
		var union []domain.Risk
		for _, o := range outcomes {
			union = append(union, o.risks...)
		}
		risks = validRisks(logger, union)
	}
	risks = domain.DedupeAndSortRisks(risks)

	riskCategories := parseRiskCategories(getMap(raw, "riskCategories"))
	if len(riskCategories) == 0 {
		riskCategories = domain.GroupRiskCategories(risks)
	}

	dimensionMaps := getMapSlice(raw, "dimensionScores")
	dimensions := make([]domain.DimensionScore, 0, len(dimensionMaps))
	for _, m := range dimensionMaps {
		dimensions = append(dimensions, parseDimensionScore(m))
	}

	missingMaps := getMapSlice(raw, "missingItems")
	missing := make([]domain.MissingItem, 0, len(missingMaps))
	for _, m := range missingMaps {
		missing = append(missing, parseMissingItem(m))
	}

	complianceMaps := getMapSlice(raw, "complianceChecklist")
	complianceItems := make([]domain.ComplianceItem, 0, len(complianceMaps))
	for _, m := range complianceMaps {
		complianceItems = append(complianceItems, parseComplianceItem(m))
	}
	complianceItems = compliancecatalog.EnsureCoverage(complianceItems)

	profile := parseContractProfile(getMap(raw, "contractProfile"))

	signRecommendation := domain.NormalizeSignRecommendation(getString(raw, "signRecommendation"), score)

	return domain.Report{
		Score:               score,
		RiskLevel:           riskLevel,
		Summary:             getString(raw, "summary"),
		ContractProfile:     profile,
		RiskCategories:      riskCategories,
		DimensionScores:     dimensions,
		MissingItems:        missing,
		ComplianceChecklist: complianceItems,
		Risks:               risks,
		OverallSuggestions:  getStringSlice(raw, "overallSuggestions"),
		KeyFactsToConfirm:   getStringSlice(raw, "keyFactsToConfirm"),
		NextSteps:           getStringSlice(raw, "nextSteps"),
		SignRecommendation:  signRecommendation,
	}
}

func parseRiskCategories(m map[string]any) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		raw, ok := v.([]any)
		if !ok {
			continue
		}
		titles := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				titles = append(titles, s)
			}
		}
		out[k] = titles
	}
	return out
}

// degradedReport builds a purely chunk-aggregated Report when the reducer
// call fails, applying the same validation, dedup, sort and grouping rules
// as the normal path.
func degradedReport(logger *slog.Logger, outcomes []chunkOutcome) domain.Report {
	var allRisks []domain.Risk
	totalScore := 0
	var summaries []string
	for _, o := range outcomes {
		allRisks = append(allRisks, o.risks...)
		totalScore += o.score
		if strings.TrimSpace(o.summary) != "" {
			summaries = append(summaries, o.summary)
		}
	}
	risks := domain.DedupeAndSortRisks(validRisks(logger, allRisks))

	avgScore := 0
	if len(outcomes) > 0 {
		avgScore = totalScore / len(outcomes)
	}
	avgScore = domain.ClampScore(avgScore)

	cited := summaries
	if len(cited) > 3 {
		cited = cited[:3]
	}
	summary := fmt.Sprintf("汇总模型调用失败，已基于 %d 个片段、%d 条风险生成降级报告。%s",
		len(outcomes), len(risks), strings.Join(cited, " "))

	return domain.Report{
		Score:              avgScore,
		RiskLevel:          domain.RiskLevelFromScore(avgScore),
		Summary:            summary,
		ContractProfile:    domain.NewUnknownContractProfile(),
		RiskCategories:     domain.GroupRiskCategories(risks),
		Risks:              risks,
		SignRecommendation: domain.SignRecommendationFromScore(avgScore),
	}
}
