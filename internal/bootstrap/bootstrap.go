// Package bootstrap wires the concrete adapters into the core ports and
// assembles the use-case layer shared by cmd/api and cmd/worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contractlens/review-core/internal/config"
	"github.com/contractlens/review-core/internal/core/domain"
	"github.com/contractlens/review-core/internal/core/ports"
	"github.com/contractlens/review-core/internal/core/usecase"
	"github.com/contractlens/review-core/internal/infrastructure/chunking"
	"github.com/contractlens/review-core/internal/infrastructure/extractor/plaintext"
	"github.com/contractlens/review-core/internal/infrastructure/llm/llmclient"
	"github.com/contractlens/review-core/internal/infrastructure/queue/nats"
	"github.com/contractlens/review-core/internal/infrastructure/repository/postgres"
	"github.com/contractlens/review-core/internal/infrastructure/storage/localfs"
	"github.com/contractlens/review-core/internal/infrastructure/vector/pgvector"
	"github.com/contractlens/review-core/internal/observability/logging"
	"github.com/contractlens/review-core/internal/observability/metrics"
)

// App is the fully-wired dependency graph shared by every process
// entrypoint (cmd/api, cmd/worker, cmd/mcp).
type App struct {
	Config config.Config
	Logger *slog.Logger

	Storage   ports.ObjectStorage
	Extractor ports.TextExtractor
	Queue     ports.IndexingQueue
	Chunker   ports.Chunker

	Analyzer ports.ContractAnalyzer
	Query    ports.ContractQueryService
	Assist   ports.ContractAssistService
	Indexer  ports.DocumentIndexer

	HTTPMetrics   *metrics.HTTPServerMetrics
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

// New opens the database and message-queue connections, builds every
// adapter, and wires the use-case layer for the given service name.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pgvector.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure vector schema: %w", err)
	}
	store := pgvector.New(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llm := llmclient.New(llmclient.Config{
		ChatURL:    cfg.LLMChatURL,
		EmbedURL:   cfg.LLMEmbedURL,
		APIKey:     cfg.LLMAPIKey,
		ChatModel:  cfg.LLMChatModel,
		EmbedModel: cfg.LLMEmbedModel,
	})

	chunkCfg := domain.ChunkConfig{
		MaxChunkTokens: cfg.ChunkMaxTokens,
		OverlapTokens:  cfg.ChunkOverlap,
		MinChunkTokens: cfg.ChunkMinTokens,
	}.Normalize()
	chunker := chunking.NewSplitter(chunkCfg)
	extractor := plaintext.NewExtractor()

	analyzer := usecase.NewAnalysisOrchestrator(chunker, llm, queue, logger)
	indexer := usecase.NewIndexer(chunker, llm, store)
	query := usecase.NewQueryContractService(llm, store, nil, llm)
	if domain.RetrievalMode(cfg.RAGRetrievalMode) == domain.RetrievalHybrid {
		query = usecase.NewQueryContractService(llm, store, store, llm)
	}
	assist := usecase.NewAssistService(llm)

	return &App{
		Config: cfg,
		Logger: logger,

		Storage:   storage,
		Extractor: extractor,
		Queue:     queue,
		Chunker:   chunker,

		Analyzer: analyzer,
		Query:    query,
		Assist:   assist,
		Indexer:  indexer,

		HTTPMetrics:   metrics.NewHTTPServerMetrics(service),
		WorkerMetrics: metrics.NewWorkerMetrics(service),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
