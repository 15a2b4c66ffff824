package usecase

import (
	"fmt"

	"github.com/contractlens/review-core/internal/compliance"
)

const chunkSystemPrompt = `你是一名资深合同审查律师。请以严谨、专业的中文法律视角分析下面这段合同片段。
严格按照如下 JSON 结构输出，不要包含任何额外说明或 Markdown：
{
  "score": 0-100 的整数,
  "summary": "本片段要点摘要",
  "risks": [{"level": "high|medium|low", "title": "简短标题", "clause": "原文逐字引用(20-150字)", "description": "风险说明(不少于100字)", "legalBasis": "可选法律依据"}],
  "keyTerms": ["关键术语"],
  "suggestions": ["修改建议"]
}`

func chunkUserPrompt(advisory, content string) string {
	return fmt.Sprintf("审查重点：%s\n\n合同片段：\n%s", advisory, content)
}

func consolidationSystemPrompt(chunkCount int) string {
	return fmt.Sprintf(`你是一名资深合同审查律师，现在需要将 %d 个片段的分析结果整合为一份完整的合同审查报告。
请在 complianceChecklist 中逐项评估以下合规主题：
%s
严格按照如下 JSON 结构输出，不要包含任何额外说明或 Markdown：
{
  "score": 0-100 的整数,
  "riskLevel": "low|medium|high|critical",
  "summary": "整体摘要",
  "contractProfile": {"contractType": "", "parties": [], "term": "", "subjectMatter": "", "payment": "", "deliveryAndAcceptance": "", "disputeResolution": ""},
  "riskCategories": {"分类名": ["风险标题"]},
  "dimensionScores": [{"dimension": "维度名", "score": 0-100, "findings": [], "recommendations": []}] (至少8个维度),
  "missingItems": [{"item": "", "whyImportant": "", "suggestion": ""}],
  "complianceChecklist": [{"topic": "", "status": "ok|risk|missing|na", "notes": ""}],
  "risks": [{"level": "", "title": "", "clause": "", "description": "", "legalBasis": "", "category": ""}],
  "overallSuggestions": [],
  "keyFactsToConfirm": [],
  "nextSteps": [],
  "signRecommendation": "可签署|修改后签署|暂缓签署|建议拒绝|需人工复核"
}`, chunkCount, compliance.PromptList())
}

const ragSystemPrompt = `你是一名合同问答助手。只能依据下方提供的上下文回答问题；如果上下文不足以支撑回答，请明确说明未能在文档中找到相关内容，不要编造。回答时请引用所依据的条款。`

func ragUserPrompt(question, context string) string {
	return fmt.Sprintf("问题：%s\n\n上下文：\n%s", question, context)
}
