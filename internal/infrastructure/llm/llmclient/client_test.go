package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, chatHandler, embedHandler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	if chatHandler != nil {
		mux.HandleFunc("/chat", chatHandler)
	}
	if embedHandler != nil {
		mux.HandleFunc("/embed", embedHandler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := New(Config{
		ChatURL:    server.URL + "/chat",
		EmbedURL:   server.URL + "/embed",
		APIKey:     "test-key",
		ChatModel:  "test-chat-model",
		EmbedModel: "test-embed-model",
	})
	return client, server
}

func TestChatReturnsMessageContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello"}},
			},
		})
	}, nil)

	got, err := client.Chat(context.Background(), "sys", "hi", false, 0.3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestChatTruncatesLongUserContent(t *testing.T) {
	var received chatRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}, nil)

	longText := make([]rune, defaultMaxContentChars+50)
	for i := range longText {
		longText[i] = 'a'
	}
	_, err := client.Chat(context.Background(), "sys", string(longText), false, 0.3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	userMsg := received.Messages[1].Content
	want := defaultMaxContentChars + len([]rune(truncationMarker))
	if len([]rune(userMsg)) != want {
		t.Fatalf("expected truncated content length %d, got %d", want, len([]rune(userMsg)))
	}
}

func TestChatJSONFallsBackToBraceExtraction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "here is the result: {\"score\": 90} thanks"}},
			},
		})
	}, nil)

	out, err := client.ChatJSON(context.Background(), "sys", "q", 0.3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["score"].(float64) != 90 {
		t.Fatalf("expected score 90, got %v", out["score"])
	}
}

func TestChatDoesNotRetry4xx(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}, nil)

	_, err := client.Chat(context.Background(), "sys", "q", false, 0.3, 3)
	if err == nil {
		t.Fatalf("expected error on 4xx")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a 4xx response, got %d", attempts)
	}
}

func TestChatRetries5xxThenSucceeds(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "recovered"}}},
		})
	}, nil)

	got, err := client.Chat(context.Background(), "sys", "q", false, 0.3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("expected recovered response, got %q", got)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestEmbedReturnsVector(t *testing.T) {
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	})

	v, err := client.Embed(context.Background(), "hello", "document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 3 {
		t.Fatalf("expected vector length 3, got %d", len(v))
	}
}

func TestEmbedBatchFallsBackPerText(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 2}},
		})
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"}, "document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if v == nil {
			t.Fatalf("expected vector %d to be populated by per-text fallback", i)
		}
	}
}
