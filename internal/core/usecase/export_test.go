package usecase

import (
	"strings"
	"testing"

	"github.com/contractlens/review-core/internal/core/domain"
)

func TestFormatReportAsTextIncludesCoreSections(t *testing.T) {
	report := domain.Report{
		Score:              72,
		RiskLevel:          domain.OverallMedium,
		Summary:            "整体风险可控",
		SignRecommendation: domain.SignRevise,
		ContractProfile: domain.ContractProfile{
			ContractType: "采购合同",
		},
		Risks: []domain.Risk{
			{Level: domain.RiskHigh, Title: "付款条款不明确", Clause: "货到付款", Description: "未约定付款期限", Recommendation: "补充付款期限"},
		},
		MissingItems: []domain.MissingItem{
			{Item: "违约责任条款"},
		},
		OverallSuggestions: []string{"建议明确验收标准"},
	}

	content, fileName := FormatReportAsText(ExportRequest{Report: report})

	for _, want := range []string{"整体风险可控", "付款条款不明确", "违约责任条款", "建议明确验收标准", "补充付款期限"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected exported content to contain %q, got:\n%s", want, content)
		}
	}
	if fileName != "合同审查报告.txt" {
		t.Errorf("expected default file name, got %q", fileName)
	}
}

func TestFormatReportAsTextHonorsCustomFileName(t *testing.T) {
	_, fileName := FormatReportAsText(ExportRequest{FileName: "  our-report.txt  "})
	if fileName != "our-report.txt" {
		t.Errorf("expected trimmed custom file name, got %q", fileName)
	}
}

func TestFormatReportAsTextIncludesAnnotations(t *testing.T) {
	content, _ := FormatReportAsText(ExportRequest{
		Annotations: []domain.Annotation{
			{Clause: "违约金为合同总额的20%", Risk: domain.Risk{Title: "违约金过高"}},
		},
	})
	if !strings.Contains(content, "违约金过高") || !strings.Contains(content, "违约金为合同总额的20%") {
		t.Errorf("expected annotation to be rendered, got:\n%s", content)
	}
}
