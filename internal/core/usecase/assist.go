package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
)

const (
	assistMaxRetries    = 1
	assistTemperature   = 0.3
	assistMaxContentLen = 20000
)

// AssistService implements the small single-shot LLM-backed helpers exposed
// alongside the full analysis pipeline: summarizing, extracting key terms,
// translating, and comparing clauses.
type AssistService struct {
	llm ports.ChatCompleter
}

// NewAssistService wires the chat completer shared with the analysis and
// query pipelines.
func NewAssistService(llm ports.ChatCompleter) *AssistService {
	return &AssistService{llm: llm}
}

// Assist runs the requested action over text and returns the model's raw
// text response.
func (s *AssistService) Assist(ctx context.Context, text, action string) (string, error) {
	system, ok := assistSystemPromptFor(action)
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "assist", fmt.Errorf("unknown action %q", action))
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "assist", fmt.Errorf("empty text"))
	}

	content := text
	if r := []rune(content); len(r) > assistMaxContentLen {
		content = string(r[:assistMaxContentLen])
	}

	result, err := s.llm.Chat(ctx, system, assistUserPrompt(content), false, assistTemperature, assistMaxRetries)
	if err != nil {
		return "", fmt.Errorf("assist %s: %w", action, err)
	}
	return strings.TrimSpace(result), nil
}
