// Package mcp exposes the analysis and query use cases as Model Context
// Protocol tools over stdio, so MCP-capable agents can drive the same
// pipeline the HTTP surface drives.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/contractlens/review-core/internal/core/ports"
)

// Server wraps ContractAnalyzer and ContractQueryService as MCP tools.
type Server struct {
	analyzer ports.ContractAnalyzer
	query    ports.ContractQueryService

	mcpServer *server.MCPServer
}

func NewServer(analyzer ports.ContractAnalyzer, query ports.ContractQueryService) *Server {
	s := &Server{
		analyzer: analyzer,
		query:    query,
	}

	mcpServer := server.NewMCPServer("contract-review-core", "1.0.0")

	mcpServer.AddTool(mcp.NewTool("analyze_contract",
		mcp.WithDescription("Run full risk analysis over contract text and return the consolidated report as JSON."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full contract text to analyze.")),
		mcp.WithString("document_id", mcp.Description("Optional identifier to associate with the document; a new one is generated if omitted.")),
	), s.analyzeContract)

	mcpServer.AddTool(mcp.NewTool("query_contract",
		mcp.WithDescription("Answer a question about a previously indexed contract, grounded in retrieved excerpts."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Natural-language question about the contract.")),
		mcp.WithString("document_id", mcp.Description("Restrict retrieval to this document; searches across all indexed documents if omitted.")),
	), s.queryContract)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) analyzeContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	documentID := request.GetString("document_id", "")
	if documentID == "" {
		documentID = uuid.NewString()
	}

	report, err := s.analyzer.Analyze(ctx, documentID, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analyze failed: %v", err)), nil
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) queryContract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	documentID := request.GetString("document_id", "")

	answer, err := s.query.Query(ctx, question, documentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	payload, err := json.Marshal(answer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal answer: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ServeStdio runs the MCP server over stdio until ctx is cancelled or the
// transport closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.mcpServer, server.WithStdioContextFunc(func(context.Context) context.Context {
		return ctx
	}))
}
