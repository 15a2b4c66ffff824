package httpadapter

import "github.com/contractlens/review-core/internal/core/domain"

type analysisSummaryDTO struct {
	Language        string  `json:"language"`
	CharCount       int     `json:"charCount"`
	EstimatedTokens int     `json:"estimatedTokens"`
	ChunkCount      int     `json:"chunkCount"`
	AvgChunkTokens  float64 `json:"avgChunkTokens"`
}

type uploadResponseDTO struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Status   string             `json:"status"`
	Content  string             `json:"content"`
	Analysis analysisSummaryDTO `json:"analysis"`
}

type riskDTO struct {
	Level          string `json:"level"`
	Title          string `json:"title"`
	Clause         string `json:"clause"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
	LegalBasis     string `json:"legalBasis,omitempty"`
	Category       string `json:"category"`
}

func toRiskDTO(r domain.Risk) riskDTO {
	return riskDTO{
		Level:          string(r.Level),
		Title:          r.Title,
		Clause:         r.Clause,
		Description:    r.Description,
		Recommendation: r.Recommendation,
		LegalBasis:     r.LegalBasis,
		Category:       r.Category,
	}
}

type dimensionScoreDTO struct {
	Dimension       string   `json:"dimension"`
	Score           int      `json:"score"`
	Findings        []string `json:"findings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type missingItemDTO struct {
	Item         string `json:"item"`
	WhyImportant string `json:"whyImportant,omitempty"`
	Suggestion   string `json:"suggestion,omitempty"`
}

type complianceItemDTO struct {
	Topic  string `json:"topic"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type contractProfileDTO struct {
	ContractType          string   `json:"contractType"`
	Parties               []string `json:"parties,omitempty"`
	Term                  string   `json:"term"`
	SubjectMatter         string   `json:"subjectMatter"`
	Payment               string   `json:"payment"`
	DeliveryAndAcceptance string   `json:"deliveryAndAcceptance"`
	DisputeResolution     string   `json:"disputeResolution"`
}

type reportDTO struct {
	Score               int                  `json:"score"`
	RiskLevel           string               `json:"riskLevel"`
	Summary             string               `json:"summary"`
	ContractProfile     contractProfileDTO   `json:"contractProfile"`
	RiskCategories      map[string][]string  `json:"riskCategories"`
	DimensionScores     []dimensionScoreDTO  `json:"dimensionScores,omitempty"`
	MissingItems        []missingItemDTO     `json:"missingItems,omitempty"`
	ComplianceChecklist []complianceItemDTO  `json:"complianceChecklist,omitempty"`
	Risks               []riskDTO            `json:"risks"`
	OverallSuggestions  []string             `json:"overallSuggestions,omitempty"`
	KeyFactsToConfirm   []string             `json:"keyFactsToConfirm,omitempty"`
	NextSteps           []string             `json:"nextSteps,omitempty"`
	SignRecommendation  string               `json:"signRecommendation"`
}

func toReportDTO(r domain.Report) reportDTO {
	risks := make([]riskDTO, 0, len(r.Risks))
	for _, risk := range r.Risks {
		risks = append(risks, toRiskDTO(risk))
	}

	dims := make([]dimensionScoreDTO, 0, len(r.DimensionScores))
	for _, d := range r.DimensionScores {
		dims = append(dims, dimensionScoreDTO{
			Dimension:       d.Dimension,
			Score:           d.Score,
			Findings:        d.Findings,
			Recommendations: d.Recommendations,
		})
	}

	missing := make([]missingItemDTO, 0, len(r.MissingItems))
	for _, m := range r.MissingItems {
		missing = append(missing, missingItemDTO{Item: m.Item, WhyImportant: m.WhyImportant, Suggestion: m.Suggestion})
	}

	compliance := make([]complianceItemDTO, 0, len(r.ComplianceChecklist))
	for _, c := range r.ComplianceChecklist {
		compliance = append(compliance, complianceItemDTO{Topic: c.Topic, Status: string(c.Status), Notes: c.Notes})
	}

	return reportDTO{
		Score:     r.Score,
		RiskLevel: string(r.RiskLevel),
		Summary:   r.Summary,
		ContractProfile: contractProfileDTO{
			ContractType:          r.ContractProfile.ContractType,
			Parties:               r.ContractProfile.Parties,
			Term:                  r.ContractProfile.Term,
			SubjectMatter:         r.ContractProfile.SubjectMatter,
			Payment:               r.ContractProfile.Payment,
			DeliveryAndAcceptance: r.ContractProfile.DeliveryAndAcceptance,
			DisputeResolution:     r.ContractProfile.DisputeResolution,
		},
		RiskCategories:      r.RiskCategories,
		DimensionScores:     dims,
		MissingItems:        missing,
		ComplianceChecklist: compliance,
		Risks:               risks,
		OverallSuggestions:  r.OverallSuggestions,
		KeyFactsToConfirm:   r.KeyFactsToConfirm,
		NextSteps:           r.NextSteps,
		SignRecommendation:  r.SignRecommendation,
	}
}

// fromReportDTO converts a client-submitted report DTO (export-docx request)
// back into the domain shape for formatting; the DTO is not persisted, so
// unknown-field defaulting is the caller's concern, not this conversion's.
func fromReportDTO(d reportDTO) domain.Report {
	risks := make([]domain.Risk, 0, len(d.Risks))
	for _, r := range d.Risks {
		risks = append(risks, domain.Risk{
			Level:          domain.RiskLevel(r.Level),
			Title:          r.Title,
			Clause:         r.Clause,
			Description:    r.Description,
			Recommendation: r.Recommendation,
			LegalBasis:     r.LegalBasis,
			Category:       r.Category,
		})
	}

	missing := make([]domain.MissingItem, 0, len(d.MissingItems))
	for _, m := range d.MissingItems {
		missing = append(missing, domain.MissingItem{Item: m.Item, WhyImportant: m.WhyImportant, Suggestion: m.Suggestion})
	}

	return domain.Report{
		Score:     d.Score,
		RiskLevel: domain.OverallRiskLevel(d.RiskLevel),
		Summary:   d.Summary,
		ContractProfile: domain.ContractProfile{
			ContractType:          d.ContractProfile.ContractType,
			Parties:               d.ContractProfile.Parties,
			Term:                  d.ContractProfile.Term,
			SubjectMatter:         d.ContractProfile.SubjectMatter,
			Payment:               d.ContractProfile.Payment,
			DeliveryAndAcceptance: d.ContractProfile.DeliveryAndAcceptance,
			DisputeResolution:     d.ContractProfile.DisputeResolution,
		},
		RiskCategories:     d.RiskCategories,
		MissingItems:       missing,
		Risks:              risks,
		OverallSuggestions: d.OverallSuggestions,
		KeyFactsToConfirm:  d.KeyFactsToConfirm,
		NextSteps:          d.NextSteps,
		SignRecommendation: d.SignRecommendation,
	}
}

type sourceDTO struct {
	DocumentID string  `json:"documentId"`
	Filename   string  `json:"filename,omitempty"`
	ChunkIndex int     `json:"chunkIndex"`
	Excerpt    string  `json:"excerpt"`
	Score      float64 `json:"score"`
}

type answerDTO struct {
	Answer        string      `json:"answer"`
	Sources       []sourceDTO `json:"sources"`
	Confidence    float64     `json:"confidence"`
	ContextTokens int         `json:"contextTokens"`
}

func toAnswerDTO(a domain.Answer) answerDTO {
	sources := make([]sourceDTO, 0, len(a.Sources))
	for _, s := range a.Sources {
		sources = append(sources, sourceDTO{
			DocumentID: s.DocumentID,
			Filename:   s.Filename,
			ChunkIndex: s.ChunkIndex,
			Excerpt:    s.Excerpt,
			Score:      s.Score,
		})
	}
	return answerDTO{
		Answer:        a.Text,
		Sources:       sources,
		Confidence:    a.Confidence,
		ContextTokens: a.ContextTokens,
	}
}

type progressEventDTO struct {
	Stage    string     `json:"stage"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
	Data     *reportDTO `json:"data,omitempty"`
	Error    string     `json:"error,omitempty"`
}

func toProgressEventDTO(e domain.ProgressEvent) progressEventDTO {
	dto := progressEventDTO{
		Stage:    string(e.Stage),
		Progress: e.Progress,
		Message:  e.Message,
		Error:    e.Error,
	}
	if e.Data != nil {
		report := toReportDTO(*e.Data)
		dto.Data = &report
	}
	return dto
}
