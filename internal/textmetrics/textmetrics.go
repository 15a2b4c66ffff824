// Package textmetrics provides pure, allocation-light heuristics for
// estimating token counts and detecting the dominant script of mixed
// CJK/Latin legal text, with no I/O and no external dependencies.
package textmetrics

import "math"

// cjkRatioThreshold is the CJK-character-ratio above which text is
// classified as Chinese.
const cjkRatioThreshold = 0.3

// isCJK reports whether r falls in the CJK Unified Ideographs block
// (U+4E00-U+9FFF).
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// EstimateTokens approximates the token count of text by weighting CJK
// characters at 0.7 tokens each and all other characters at 0.25 tokens
// each, rounding up. Empty input returns 0.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	total := 0
	cjk := 0
	for _, r := range text {
		total++
		if isCJK(r) {
			cjk++
		}
	}
	estimate := float64(cjk)*0.7 + float64(total-cjk)*0.25
	return int(math.Ceil(estimate))
}

// DetectLanguage classifies text as "zh" when its CJK character ratio
// exceeds cjkRatioThreshold, otherwise "en". Empty input returns "en".
func DetectLanguage(text string) string {
	if text == "" {
		return "en"
	}
	total := 0
	cjk := 0
	for _, r := range text {
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return "en"
	}
	if float64(cjk)/float64(total) > cjkRatioThreshold {
		return "zh"
	}
	return "en"
}
