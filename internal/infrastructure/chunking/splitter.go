// Package chunking implements the structural legal-document chunker: it
// recognizes articles, numbered clauses, section headers and signature
// blocks, then packs them into token-bounded chunks with cross-boundary
// overlap.
package chunking

import (
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/textmetrics"
)

// Splitter segments legal text into domain.Chunk records per a ChunkConfig.
type Splitter struct {
	cfg domain.ChunkConfig
}

// NewSplitter returns a Splitter bound to cfg, filling in any unset field
// with spec defaults.
func NewSplitter(cfg domain.ChunkConfig) *Splitter {
	return &Splitter{cfg: cfg.Normalize()}
}

// accumulator is the in-progress chunk being packed.
type accumulator struct {
	content    strings.Builder
	segTypes   map[domain.SegmentType]struct{}
	importance domain.Importance
	hasOverlap bool
}

func newAccumulator() *accumulator {
	return &accumulator{segTypes: make(map[domain.SegmentType]struct{}), importance: domain.ImportanceNormal}
}

func (a *accumulator) empty() bool {
	return a.content.Len() == 0
}

func (a *accumulator) tokens() int {
	return textmetrics.EstimateTokens(a.content.String())
}

func (a *accumulator) addSegmentType(t domain.SegmentType) {
	a.segTypes[t] = struct{}{}
}

func (a *accumulator) segmentTypeList() []domain.SegmentType {
	out := make([]domain.SegmentType, 0, len(a.segTypes))
	for _, t := range []domain.SegmentType{
		domain.SegmentArticle, domain.SegmentClause, domain.SegmentHeader,
		domain.SegmentSignature, domain.SegmentContent,
	} {
		if _, ok := a.segTypes[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (a *accumulator) promoteImportance(i domain.Importance) {
	if i == domain.ImportanceHigh {
		a.importance = domain.ImportanceHigh
	}
}

// Split parses text's language, recognizes its structure, and packs it into
// an ordered, deterministic list of chunks respecting the Splitter's config.
func (s *Splitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lang := textmetrics.DetectLanguage(text)
	segments := buildSegments(lang, text)

	var emitted []domain.Chunk
	cur := newAccumulator()

	flush := func() {
		if cur.empty() {
			return
		}
		emitted = append(emitted, domain.Chunk{
			Content:    cur.content.String(),
			Tokens:     cur.tokens(),
			Segments:   cur.segmentTypeList(),
			Importance: cur.importance,
			HasOverlap: cur.hasOverlap,
			ChunkIndex: len(emitted),
		})
		cur = newAccumulator()
	}

	appendToCurrent := func(content string, segType domain.SegmentType, importance domain.Importance) {
		if !cur.empty() {
			cur.content.WriteString("\n\n")
		}
		cur.content.WriteString(content)
		cur.addSegmentType(segType)
		cur.promoteImportance(importance)
	}

	for _, seg := range segments {
		segContent := seg.text()
		segTokens := textmetrics.EstimateTokens(segContent)

		if segTokens > s.cfg.MaxChunkTokens {
			flush()
			for _, sub := range packSentencesIntoChunks(lang, segContent, s.cfg.MaxChunkTokens) {
				emitted = append(emitted, domain.Chunk{
					Content:    sub,
					Tokens:     textmetrics.EstimateTokens(sub),
					Segments:   []domain.SegmentType{seg.segType},
					Importance: seg.importance,
					ChunkIndex: len(emitted),
				})
			}
			continue
		}

		if cur.empty() || cur.tokens()+segTokens <= s.cfg.MaxChunkTokens {
			appendToCurrent(segContent, seg.segType, seg.importance)
			continue
		}

		prevContent := cur.content.String()
		flush()
		overlapTail := extractOverlap(lang, prevContent, s.cfg.OverlapTokens)
		if overlapTail != "" {
			cur.content.WriteString(domain.OverlapMarker)
			cur.content.WriteString(overlapTail)
			cur.hasOverlap = true
		}
		appendToCurrent(segContent, seg.segType, seg.importance)
	}

	s.finalFlush(&emitted, cur)

	return emitted
}

// finalFlush emits the residual accumulator, merging it into the previously
// emitted chunk when it is too small to stand alone (min_chunk_tokens).
func (s *Splitter) finalFlush(emitted *[]domain.Chunk, cur *accumulator) {
	if cur.empty() {
		return
	}
	tokens := cur.tokens()
	if tokens >= s.cfg.MinChunkTokens || len(*emitted) == 0 {
		*emitted = append(*emitted, domain.Chunk{
			Content:    cur.content.String(),
			Tokens:     tokens,
			Segments:   cur.segmentTypeList(),
			Importance: cur.importance,
			HasOverlap: cur.hasOverlap,
			ChunkIndex: len(*emitted),
		})
		return
	}

	last := &(*emitted)[len(*emitted)-1]
	merged := last.Content + "\n\n" + cur.content.String()
	last.Content = merged
	last.Tokens = textmetrics.EstimateTokens(merged)
	last.Segments = mergeSegmentTypes(last.Segments, cur.segmentTypeList())
	if cur.importance == domain.ImportanceHigh {
		last.Importance = domain.ImportanceHigh
	}
}

func mergeSegmentTypes(a, b []domain.SegmentType) []domain.SegmentType {
	seen := make(map[domain.SegmentType]struct{}, len(a)+len(b))
	out := make([]domain.SegmentType, 0, len(a)+len(b))
	for _, t := range append(append([]domain.SegmentType{}, a...), b...) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// packSentencesIntoChunks greedily packs sentences of an oversize segment
// into sub-chunks of at most maxTokens each.
func packSentencesIntoChunks(lang, text string, maxTokens int) []string {
	sentences := splitSentences(lang, text)
	if len(sentences) == 0 {
		return nil
	}

	var out []string
	var b strings.Builder
	for _, sentence := range sentences {
		candidate := sentence
		if b.Len() > 0 {
			candidate = b.String() + sentence
		}
		if b.Len() > 0 && textmetrics.EstimateTokens(candidate) > maxTokens {
			out = append(out, b.String())
			b.Reset()
			b.WriteString(sentence)
			continue
		}
		b.WriteString(sentence)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// extractOverlap walks prevContent's sentences from the end, prepending each
// to the accumulated tail until it reaches overlapTokens.
func extractOverlap(lang, prevContent string, overlapTokens int) string {
	if overlapTokens <= 0 || prevContent == "" {
		return ""
	}
	sentences := splitSentences(lang, prevContent)
	if len(sentences) == 0 {
		return ""
	}

	var tail string
	for i := len(sentences) - 1; i >= 0; i-- {
		tail = sentences[i] + tail
		if textmetrics.EstimateTokens(tail) >= overlapTokens {
			break
		}
	}
	return tail
}
