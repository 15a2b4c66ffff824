package usecase

import (
	"errors"
	"log/slog"

	"github.com/contractlens/review-core/internal/core/domain"
)

func getString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func getInt(m map[string]any, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func getStringSlice(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func getMap(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	out, _ := v.(map[string]any)
	return out
}

func getMapSlice(m map[string]any, key string) []map[string]any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if mm, ok := item.(map[string]any); ok {
			out = append(out, mm)
		}
	}
	return out
}

func parseRisk(m map[string]any) domain.Risk {
	r := domain.Risk{
		Level:          domain.RiskLevel(getString(m, "level")),
		Title:          getString(m, "title"),
		Clause:         getString(m, "clause"),
		Description:    getString(m, "description"),
		Recommendation: getString(m, "recommendation"),
		LegalBasis:     getString(m, "legalBasis"),
		Category:       getString(m, "category"),
	}
	r.Normalize()
	return r
}

func parseRisks(raw []map[string]any) []domain.Risk {
	out := make([]domain.Risk, 0, len(raw))
	for _, rm := range raw {
		out = append(out, parseRisk(rm))
	}
	return out
}

// validRisks keeps only risks meeting the clause/description length
// invariants, logging a warning for every risk dropped at this final
// acceptance stage.
func validRisks(logger *slog.Logger, risks []domain.Risk) []domain.Risk {
	out := make([]domain.Risk, 0, len(risks))
	for _, r := range risks {
		if err := r.Validate(); err != nil {
			logWarn(logger, "risk dropped at final validation", "title", r.Title, "reason", err)
			continue
		}
		out = append(out, r)
	}
	return out
}

// logWarn logs at warning level if logger is non-nil, tolerating callers
// (tests, degraded paths built without a wired orchestrator) that pass none.
func logWarn(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, args...)
}

var _ = errors.Is

func parseDimensionScore(m map[string]any) domain.DimensionScore {
	return domain.DimensionScore{
		Dimension:       getString(m, "dimension"),
		Score:           getInt(m, "score"),
		Findings:        getStringSlice(m, "findings"),
		Recommendations: getStringSlice(m, "recommendations"),
	}
}

func parseMissingItem(m map[string]any) domain.MissingItem {
	return domain.MissingItem{
		Item:         getString(m, "item"),
		WhyImportant: getString(m, "whyImportant"),
		Suggestion:   getString(m, "suggestion"),
	}
}

func parseComplianceItem(m map[string]any) domain.ComplianceItem {
	return domain.ComplianceItem{
		Topic:  getString(m, "topic"),
		Status: domain.ComplianceStatus(getString(m, "status")),
		Notes:  getString(m, "notes"),
	}
}

func parseContractProfile(m map[string]any) domain.ContractProfile {
	p := domain.ContractProfile{
		ContractType:          getString(m, "contractType"),
		Parties:               getStringSlice(m, "parties"),
		Term:                  getString(m, "term"),
		SubjectMatter:          getString(m, "subjectMatter"),
		Payment:                getString(m, "payment"),
		DeliveryAndAcceptance: getString(m, "deliveryAndAcceptance"),
		DisputeResolution:     getString(m, "disputeResolution"),
	}
	p.FillUnknown()
	return p
}
