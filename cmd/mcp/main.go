package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/contractlens/review-core/internal/adapters/mcp"
	"github.com/contractlens/review-core/internal/bootstrap"
	"github.com/contractlens/review-core/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.Analyzer, app.Query)
	log.Println("mcp server serving over stdio")
	if err := srv.ServeStdio(ctx); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
