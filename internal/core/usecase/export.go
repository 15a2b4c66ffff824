package usecase

import (
	"fmt"
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
)

// ExportRequest carries the client-held report plus the source text and
// annotations to render into a downloadable document body. Real DOCX
// generation is an external collaborator; this produces the plain-text
// body that collaborator wraps.
type ExportRequest struct {
	Report      domain.Report
	Content     string
	Annotations []domain.Annotation
	FileName    string
}

// FormatReportAsText renders req.Report as a headed plain-text document,
// defaulting FileName when the caller left it blank.
func FormatReportAsText(req ExportRequest) (content, fileName string) {
	var b strings.Builder

	fmt.Fprintf(&b, "合同审查报告\n")
	fmt.Fprintf(&b, "综合评分：%d\n", req.Report.Score)
	fmt.Fprintf(&b, "风险等级：%s\n", req.Report.RiskLevel)
	fmt.Fprintf(&b, "签署建议：%s\n\n", req.Report.SignRecommendation)

	fmt.Fprintf(&b, "摘要\n%s\n\n", req.Report.Summary)

	profile := req.Report.ContractProfile
	fmt.Fprintf(&b, "合同概况\n")
	fmt.Fprintf(&b, "类型：%s\n", profile.ContractType)
	fmt.Fprintf(&b, "标的：%s\n", profile.SubjectMatter)
	fmt.Fprintf(&b, "期限：%s\n", profile.Term)
	fmt.Fprintf(&b, "付款：%s\n", profile.Payment)
	fmt.Fprintf(&b, "交付与验收：%s\n", profile.DeliveryAndAcceptance)
	fmt.Fprintf(&b, "争议解决：%s\n\n", profile.DisputeResolution)

	if len(req.Report.Risks) > 0 {
		fmt.Fprintf(&b, "风险清单\n")
		for i, r := range req.Report.Risks {
			fmt.Fprintf(&b, "%d. [%s] %s\n   条款：%s\n   说明：%s\n", i+1, r.Level, r.Title, r.Clause, r.Description)
			if r.Recommendation != "" {
				fmt.Fprintf(&b, "   建议：%s\n", r.Recommendation)
			}
		}
		b.WriteString("\n")
	}

	if len(req.Report.MissingItems) > 0 {
		fmt.Fprintf(&b, "缺失条款\n")
		for _, m := range req.Report.MissingItems {
			fmt.Fprintf(&b, "- %s\n", m.Item)
		}
		b.WriteString("\n")
	}

	if len(req.Report.OverallSuggestions) > 0 {
		fmt.Fprintf(&b, "总体建议\n")
		for _, s := range req.Report.OverallSuggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(req.Annotations) > 0 {
		fmt.Fprintf(&b, "标注\n")
		for _, a := range req.Annotations {
			fmt.Fprintf(&b, "- [%s] %s\n", a.Risk.Title, a.Clause)
		}
	}

	fileName = strings.TrimSpace(req.FileName)
	if fileName == "" {
		fileName = "合同审查报告.txt"
	}
	return b.String(), fileName
}
