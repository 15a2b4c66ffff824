package usecase

import (
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
)

// chunkContext derives the advisory phrase passed into the chunk prompt,
// mapping a chunk's structural shape to a reviewing instruction
//.
func chunkContext(c domain.Chunk) string {
	var advisories []string
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		advisories = append(advisories, s)
	}

	for _, seg := range c.Segments {
		switch seg {
		case domain.SegmentArticle, domain.SegmentClause:
			add("重点关注权利义务分配")
		case domain.SegmentHeader:
			add("关注本段在合同整体结构中的地位")
		case domain.SegmentSignature:
			add("核查签署要件是否齐备")
		}
	}
	if c.Importance == domain.ImportanceHigh {
		add("深度分析关键条款")
	}
	if c.HasOverlap {
		add("注意避免与上文重复条款重复报告")
	}

	if len(advisories) == 0 {
		return "对本段进行全面审查"
	}
	return strings.Join(advisories, "；")
}
