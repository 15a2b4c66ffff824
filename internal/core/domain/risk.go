package domain

import (
	"strings"
	"unicode/utf8"
)

// RiskLevel is per-finding severity.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

func (l RiskLevel) valid() bool {
	switch l {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	default:
		return false
	}
}

// riskLevelRank orders levels high-to-low for sorting (higher rank first).
func riskLevelRank(l RiskLevel) int {
	switch l {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

const (
	// MinClauseChars and MinDescriptionChars are the acceptance thresholds a
	// Risk must meet to survive final validation; map-phase quality checks
	// use the same thresholds to decide whether to drop or just warn.
	MinClauseChars      = 10
	maxClauseChars      = 150
	MinDescriptionChars = 30
)

// Risk is one finding, quoting the exact source clause it concerns.
type Risk struct {
	Level          RiskLevel
	Title          string
	Clause         string
	Description    string
	Recommendation string
	LegalBasis     string
	Category       string
}

// Normalize coerces an out-of-range level to "low" and defaults Category;
// it does not enforce clause/description length — callers use Validate for that.
func (r *Risk) Normalize() {
	if !r.Level.valid() {
		r.Level = RiskLow
	}
	if strings.TrimSpace(r.Category) == "" {
		r.Category = "other"
	}
}

// Validate reports whether the risk meets the minimum clause and
// description length requirements.
func (r Risk) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.Clause)) < MinClauseChars {
		return ErrClauseTooShort
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Description)) < MinDescriptionChars {
		return ErrDescriptionTooShort
	}
	return nil
}

// DedupeKey identifies a risk for deduplication: (title, clause[:50]).
func (r Risk) DedupeKey() string {
	clause := r.Clause
	if len(clause) > 50 {
		clause = clause[:50]
	}
	return strings.TrimSpace(r.Title) + "|" + strings.TrimSpace(clause)
}

// DimensionScore is a named 0-100 score with supporting findings.
type DimensionScore struct {
	Dimension       string
	Score           int
	Findings        []string
	Recommendations []string
}

// MissingItem flags a clause type absent from the contract.
type MissingItem struct {
	Item          string
	WhyImportant  string
	Suggestion    string
}

// ComplianceStatus is the state of one compliance checklist topic.
type ComplianceStatus string

const (
	ComplianceOK      ComplianceStatus = "ok"
	ComplianceRisk    ComplianceStatus = "risk"
	ComplianceMissing ComplianceStatus = "missing"
	ComplianceNA      ComplianceStatus = "na"
)

// ComplianceItem is one row of the compliance checklist.
type ComplianceItem struct {
	Topic  string
	Status ComplianceStatus
	Notes  string
}

// unknownField marks a ContractProfile field the model could not determine.
const unknownField = "未明确"

// ContractProfile is a typed snapshot of the contract's basic facts.
type ContractProfile struct {
	ContractType          string
	Parties               []string
	Term                  string
	SubjectMatter         string
	Payment               string
	DeliveryAndAcceptance string
	DisputeResolution     string
}

// NewUnknownContractProfile returns a profile with every scalar field set to
// the "未明确" sentinel, for callers that could not derive a profile at all.
func NewUnknownContractProfile() ContractProfile {
	return ContractProfile{
		ContractType:          unknownField,
		Term:                  unknownField,
		SubjectMatter:         unknownField,
		Payment:               unknownField,
		DeliveryAndAcceptance: unknownField,
		DisputeResolution:     unknownField,
	}
}

// FillUnknown replaces empty scalar fields with the "未明确" sentinel.
func (p *ContractProfile) FillUnknown() {
	if strings.TrimSpace(p.ContractType) == "" {
		p.ContractType = unknownField
	}
	if strings.TrimSpace(p.Term) == "" {
		p.Term = unknownField
	}
	if strings.TrimSpace(p.SubjectMatter) == "" {
		p.SubjectMatter = unknownField
	}
	if strings.TrimSpace(p.Payment) == "" {
		p.Payment = unknownField
	}
	if strings.TrimSpace(p.DeliveryAndAcceptance) == "" {
		p.DeliveryAndAcceptance = unknownField
	}
	if strings.TrimSpace(p.DisputeResolution) == "" {
		p.DisputeResolution = unknownField
	}
}
