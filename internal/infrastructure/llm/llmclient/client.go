// Package llmclient issues chat-completion and embedding requests against an
// external, bearer-authenticated LLM service, with retries, backoff,
// JSON-mode parsing and pooled HTTP/2 connections.
package llmclient

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/contractlens/review-core/internal/infrastructure/resilience"
)

const (
	// maxIdleConnsPerHost keeps a large pool of persistent sockets warm
	// against the chat and embedding endpoints.
	maxIdleConnsPerHost = 64
	defaultDialTimeout  = 10 * time.Second
	defaultTimeout      = 120 * time.Second
)

// Client is a process-wide, concurrency-safe HTTP client for the chat and
// embedding endpoints.
type Client struct {
	chatURL   string
	embedURL  string
	apiKey    string
	chatModel string
	embedModel string

	httpClient *http.Client
	executor   *resilience.Executor
}

// Config carries the endpoint URLs, credentials and model names for the
// external LLM service.
type Config struct {
	ChatURL    string
	EmbedURL   string
	APIKey     string
	ChatModel  string
	EmbedModel string
}

// New builds a Client with a shared, pooled *http.Client upgraded to HTTP/2
// and a resilience.Executor used for per-request circuit breaking. Retries
// and their per-class backoff are implemented by the client itself (see
// retry.go) rather than by the executor, since the chat/embed retry policy
// uses two distinct backoff bases.
func New(cfg Config) *Client {
	transport := &http.Transport{
		MaxIdleConns:        maxIdleConnsPerHost * 2,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}
	_ = http2.ConfigureTransport(transport)

	execCfg := resilience.DefaultConfig()
	execCfg.RetryMaxAttempts = 1

	return &Client{
		chatURL:    strings.TrimRight(cfg.ChatURL, "/"),
		embedURL:   strings.TrimRight(cfg.EmbedURL, "/"),
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		httpClient: &http.Client{Transport: transport, Timeout: defaultTimeout},
		executor:   resilience.NewExecutor(execCfg),
	}
}
