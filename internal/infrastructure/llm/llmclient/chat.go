package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// truncationMarker is appended to a chat prompt truncated to the content
// character ceiling.
const truncationMarker = "\n...[内容已截断]"

// defaultMaxContentChars bounds the user message sent to the chat endpoint;
// the orchestrator already truncates its own inputs (reducer input to 8,000
// chars), this is a backstop for any caller that does not.
const defaultMaxContentChars = 24000

// defaultMaxRetries is the fallback retry ceiling for chat and reduce calls
// when a caller passes a non-positive value.
const defaultMaxRetries = 3

func truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + truncationMarker
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *responseFmt  `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Chat issues a chat-completion request and returns the raw completion
// text, implementing ports.ChatCompleter. User content is truncated before
// sending; retries follow the per-class backoff policy in retry.go.
func (c *Client) Chat(ctx context.Context, system, user string, jsonMode bool, temperature float64, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	req := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: truncate(user, defaultMaxContentChars)},
		},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &responseFmt{Type: "json_object"}
	}

	var resp chatResponse
	err := c.withRetry(ctx, "chat", maxRetries, func(attemptCtx context.Context) error {
		return c.postJSON(attemptCtx, c.chatURL, req, &resp, "chat")
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ChatJSON issues a JSON-mode chat-completion call and parses the reply
// into a generic map, falling back to brace-balanced extraction when
// strict parsing fails.
func (c *Client) ChatJSON(ctx context.Context, system, user string, temperature float64, maxRetries int) (map[string]any, error) {
	raw, err := c.Chat(ctx, system, user, true, temperature, maxRetries)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	extracted := extractJSONObject(raw)
	if err := json.Unmarshal([]byte(extracted), &out); err != nil {
		return nil, fmt.Errorf("chat json: parse response: %w", err)
	}
	return out, nil
}
