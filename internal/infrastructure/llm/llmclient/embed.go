package llmclient

import (
	"context"
	"fmt"
	"time"
)

// embedMaxChars is the per-text truncation applied before embedding.
const embedMaxChars = 8000

// embedBatchSize groups embed_batch requests to respect upstream rate
// limits.
const embedBatchSize = 10

// embedBatchPause separates consecutive embedding batches.
const embedBatchPause = 200 * time.Millisecond

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	Type  string   `json:"text_type,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding vector for a single text, truncated to
// embedMaxChars.
func (c *Client) Embed(ctx context.Context, text string, textType string) ([]float32, error) {
	vectors, err := c.embedRaw(ctx, []string{truncate(text, embedMaxChars)}, textType, 30*time.Second)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed: empty embedding result")
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in groups of embedBatchSize, pausing
// embedBatchPause between groups. On a group failure, it falls back to
// embedding each text in that group individually, substituting nil for any
// text that still fails rather than failing the whole batch.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, textType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		group := texts[start:end]

		vectors, err := c.embedGroup(ctx, group, textType)
		if err != nil {
			vectors = c.embedGroupPerText(ctx, group, textType)
		}
		out = append(out, vectors...)

		if end < len(texts) {
			timer := time.NewTimer(embedBatchPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return out, nil
}

func (c *Client) embedGroup(ctx context.Context, texts []string, textType string) ([][]float32, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = truncate(t, embedMaxChars)
	}
	vectors, err := c.embedRaw(ctx, truncated, textType, 60*time.Second)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed batch: expected %d vectors, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

// embedGroupPerText falls back to embedding each text individually,
// recording nil for any that fail so the caller can still store the chunk
// without an embedding.
func (c *Client) embedGroupPerText(ctx context.Context, texts []string, textType string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.Embed(ctx, t, textType)
		if err != nil {
			out[i] = nil
			continue
		}
		out[i] = v
	}
	return out
}

func (c *Client) embedRaw(ctx context.Context, texts []string, textType string, timeout time.Duration) ([][]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := embedRequest{Model: c.embedModel, Input: texts, Type: textType}
	var resp embedResponse
	err := c.withRetry(callCtx, "embed", defaultMaxRetries, func(attemptCtx context.Context) error {
		return c.postJSON(attemptCtx, c.embedURL, req, &resp, "embed")
	})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}
