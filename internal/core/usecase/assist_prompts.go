package usecase

import "fmt"

const (
	assistActionSummary       = "summary"
	assistActionExtractTerms  = "extract_terms"
	assistActionTranslate     = "translate"
	assistActionClauseCompare = "clause_compare"
)

const assistSummarySystemPrompt = `你是一名合同审查助手。请用简洁的中文对下面的合同文本给出一段不超过300字的摘要，突出合同类型、主要权利义务和关键期限。`

const assistExtractTermsSystemPrompt = `你是一名合同审查助手。请从下面的合同文本中提取关键条款要素，以要点列表形式输出，包括但不限于：合同主体、标的、期限、金额与付款方式、违约责任、争议解决方式。`

const assistTranslateSystemPrompt = `你是一名法律翻译。请将下面的合同文本翻译为英文，保持法律术语的准确性，不要添加解释或评论。`

const assistClauseCompareSystemPrompt = `你是一名合同审查助手。下面的文本包含两段或多段需要比较的条款，请逐点比较其权利义务、风险承担和措辞差异，并指出哪一版本对提出方更有利。`

func assistUserPrompt(text string) string {
	return fmt.Sprintf("合同文本：\n%s", text)
}

func assistSystemPromptFor(action string) (string, bool) {
	switch action {
	case assistActionSummary:
		return assistSummarySystemPrompt, true
	case assistActionExtractTerms:
		return assistExtractTermsSystemPrompt, true
	case assistActionTranslate:
		return assistTranslateSystemPrompt, true
	case assistActionClauseCompare:
		return assistClauseCompareSystemPrompt, true
	default:
		return "", false
	}
}
