// Package mcp exposes a Wayfarer service to model-context-protocol clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/pkg/domain"
)

// Server wraps a wayfarer.Service and exposes it as an MCP server.
type Server struct {
	service   *wayfarer.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(svc *wayfarer.Service) *Server {
	s := &Server{
		service:   svc,
		mcpServer: server.NewMCPServer("wayfarer-mcp", strings.TrimSpace(wayfarer.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: open_story
	openTool := mcp.NewTool("open_story",
		mcp.WithDescription("Open a story at its root page and start or resume a reading path."),
		mcp.WithString("reader", mcp.Required(), mcp.Description("Reader identity; paths are tracked per reader")),
		mcp.WithString("story", mcp.Required(), mcp.Description("Story ID")),
		mcp.WithOutputSchema[wayfarer.VisitResult](),
	)
	s.mcpServer.AddTool(openTool, mcp.NewStructuredToolHandler(s.handleOpenStory))

	// TOOL: visit_page
	visitTool := mcp.NewTool("visit_page",
		mcp.WithDescription("Follow a link or jump to a page, recording the move on the reader's path."),
		mcp.WithString("reader", mcp.Required(), mcp.Description("Reader identity")),
		mcp.WithString("story", mcp.Required(), mcp.Description("Story ID")),
		mcp.WithString("page", mcp.Required(), mcp.Description("Destination page ID")),
		mcp.WithString("prev", mcp.Description("Page navigated from; omit for a direct jump")),
		mcp.WithNumber("history_id", mcp.Description("Position of the path record being extended, as returned by earlier calls")),
		mcp.WithBoolean("forward", mcp.Description("True for onward movement, false for backtracking")),
		mcp.WithOutputSchema[wayfarer.VisitResult](),
	)
	s.mcpServer.AddTool(visitTool, mcp.NewStructuredToolHandler(s.handleVisitPage))

	// TOOL: continue_story
	continueTool := mcp.NewTool("continue_story",
		mcp.WithDescription("Resolve where the reader left off across all stories."),
		mcp.WithString("reader", mcp.Required(), mcp.Description("Reader identity")),
		mcp.WithOutputSchema[wayfarer.ResumeTarget](),
	)
	s.mcpServer.AddTool(continueTool, mcp.NewStructuredToolHandler(s.handleContinue))

	// TOOL: list_histories
	s.mcpServer.AddTool(mcp.NewTool("list_histories",
		mcp.WithDescription("List the reader's path records, one per distinct route taken."),
		mcp.WithString("reader", mcp.Required(), mcp.Description("Reader identity")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reader := request.GetString("reader", "")
		histories, err := s.service.Histories(ctx, reader)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(histories)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleOpenStory(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (wayfarer.VisitResult, error) {
	reader, _ := args["reader"].(string)
	story, _ := args["story"].(string)

	result, err := s.service.Visit(ctx, reader, domain.Visit{
		Kind:  domain.VisitRoot,
		Story: domain.StoryID(story),
	})
	if err != nil {
		return wayfarer.VisitResult{}, fmt.Errorf("open failed: %w", err)
	}
	return *result, nil
}

func (s *Server) handleVisitPage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (wayfarer.VisitResult, error) {
	reader, _ := args["reader"].(string)
	story, _ := args["story"].(string)
	page, _ := args["page"].(string)

	v := domain.Visit{
		Kind:  domain.VisitExternal,
		Story: domain.StoryID(story),
		Page:  domain.PageID(page),
	}
	if prev, ok := args["prev"].(string); ok && prev != "" {
		v.Prev = domain.PageID(prev)
		v.Kind = domain.VisitLinked
	}
	if ref, ok := args["history_id"].(float64); ok {
		id := int(ref)
		v.HistoryRef = &id
	}
	if forward, ok := args["forward"].(bool); ok {
		v.Forward = forward
	}

	result, err := s.service.Visit(ctx, reader, v)
	if err != nil {
		return wayfarer.VisitResult{}, fmt.Errorf("visit failed: %w", err)
	}
	return *result, nil
}

func (s *Server) handleContinue(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (wayfarer.ResumeTarget, error) {
	reader, _ := args["reader"].(string)

	target, ok, err := s.service.Continue(ctx, reader)
	if err != nil {
		return wayfarer.ResumeTarget{}, fmt.Errorf("continue failed: %w", err)
	}
	if !ok {
		return wayfarer.ResumeTarget{}, fmt.Errorf("reader '%s' has no histories", reader)
	}
	return *target, nil
}

func (s *Server) registerResources() {
	// EXPOSE: wayfarer://stories
	s.mcpServer.AddResource(mcp.NewResource("wayfarer://stories", "Available Stories",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		stories, err := s.service.Stories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list stories: %w", err)
		}
		jsonBytes, _ := json.Marshal(stories)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "wayfarer://stories",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
