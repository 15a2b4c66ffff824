package chunking

import (
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
)

// segment is one contiguous structural region built by walking the source
// lines of a document, before packing into token-bounded chunks.
type segment struct {
	content    strings.Builder
	segType    domain.SegmentType
	importance domain.Importance
}

func (s *segment) text() string {
	return s.content.String()
}

func segmentImportance(t domain.SegmentType) domain.Importance {
	switch t {
	case domain.SegmentArticle, domain.SegmentClause, domain.SegmentHeader:
		return domain.ImportanceHigh
	case domain.SegmentSignature:
		return domain.ImportanceLow
	default:
		return domain.ImportanceNormal
	}
}

// classifyLine returns the structural type a non-empty line matches in the
// given language, or domain.SegmentContent when it matches nothing.
func classifyLine(lang, line string) domain.SegmentType {
	if lang == "zh" {
		switch {
		case zhArticleRe.MatchString(line):
			return domain.SegmentArticle
		case zhNumberedRe.MatchString(line):
			return domain.SegmentClause
		case zhSubClauseRe.MatchString(line):
			return domain.SegmentClause
		case zhHeaderRe.MatchString(line):
			return domain.SegmentHeader
		case zhSignatureRe.MatchString(line):
			return domain.SegmentSignature
		default:
			return domain.SegmentContent
		}
	}
	switch {
	case enArticleRe.MatchString(line):
		return domain.SegmentArticle
	case enNumberedRe.MatchString(line):
		return domain.SegmentClause
	case enSubClauseRe.MatchString(line):
		return domain.SegmentClause
	case enHeaderRe.MatchString(line):
		return domain.SegmentHeader
	case enSignatureRe.MatchString(line):
		return domain.SegmentSignature
	default:
		return domain.SegmentContent
	}
}

// buildSegments walks text line by line, starting a new segment whenever a
// line matches a structural pattern and otherwise extending the current one.
// Empty lines insert a blank line into the current segment without starting
// a new one.
func buildSegments(lang, text string) []*segment {
	lines := strings.Split(text, "\n")
	var segments []*segment
	var current *segment

	ensureCurrent := func(t domain.SegmentType) *segment {
		seg := &segment{segType: t, importance: segmentImportance(t)}
		segments = append(segments, seg)
		return seg
	}

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.TrimSpace(trimmed) == "" {
			if current != nil {
				current.content.WriteString("\n")
			}
			continue
		}

		t := classifyLine(lang, strings.TrimSpace(trimmed))
		if t != domain.SegmentContent || current == nil {
			current = ensureCurrent(t)
			current.content.WriteString(trimmed)
			continue
		}
		current.content.WriteString("\n")
		current.content.WriteString(trimmed)
	}

	return segments
}
