// Package mcp exposes the assistant as Model Context Protocol tools over
// stdio, so other agents can drive the storefront clerk.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/internal/service/agent"
	"github.com/sandevgo/shopclerk/internal/service/retrieval"
	"github.com/sandevgo/shopclerk/pkg/log"
)

// Server wraps the MCP stdio transport around the orchestrator.
type Server struct {
	stdio  *server.StdioServer
	cancel context.CancelFunc
}

func NewServer(orchestrator *agent.Orchestrator, search *retrieval.Service) *Server {
	s := server.NewMCPServer(
		core.ClerkName,
		core.ClerkVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions("ShopClerk — conversational storefront assistant for catalog search, recommendations, and store help."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Send a message to the storefront assistant and get its reply."),
			mcp.WithString("message", mcp.Description("The user message"), mcp.Required()),
			mcp.WithString("conversationId", mcp.Description("Conversation to continue; omit to start a new one")),
		),
		toolAsk(orchestrator),
	)

	s.AddTool(
		mcp.NewTool("search_products",
			mcp.WithDescription("Fuzzy-search the product catalog."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		toolSearchProducts(search),
	)

	s.AddTool(
		mcp.NewTool("history",
			mcp.WithDescription("Return the message history of a conversation."),
			mcp.WithString("conversationId", mcp.Description("Conversation id"), mcp.Required()),
		),
		toolHistory(orchestrator),
	)

	s.AddTool(
		mcp.NewTool("reset",
			mcp.WithDescription("Clear a conversation's live state."),
			mcp.WithString("conversationId", mcp.Description("Conversation id"), mcp.Required()),
		),
		toolReset(orchestrator),
	)

	return &Server{stdio: server.NewStdioServer(s)}
}

func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	log.FromCtx(ctx).Info().Msg("starting mcp stdio server")

	if err := s.stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func toolAsk(orchestrator *agent.Orchestrator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		resp, err := orchestrator.ProcessRequest(ctx, core.Request{
			Message:        message,
			ConversationID: req.GetString("conversationId", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("request failed: %v", err)), nil
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal response: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolSearchProducts(search *retrieval.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		results, err := search.SearchProducts(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolHistory(orchestrator *agent.Orchestrator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversationId")
		if err != nil {
			return mcpError("conversationId is required"), nil
		}

		messages := orchestrator.GetConversationHistory(ctx, id)
		b, err := json.Marshal(messages)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal history: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func toolReset(orchestrator *agent.Orchestrator) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("conversationId")
		if err != nil {
			return mcpError("conversationId is required"), nil
		}

		if orchestrator.ClearConversation(id) {
			return mcpText(fmt.Sprintf("cleared conversation %s", id)), nil
		}
		return mcpText(fmt.Sprintf("no live conversation %s", id)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
