package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vignette/internal/runtime"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// EntitiesURI is the resource listing the authored content of every entity.
const EntitiesURI = "vignette://entities"

// Engine is the slice of the vignette engine exposed to MCP clients.
type Engine interface {
	Submit(entityID string, trigger domain.Trigger, done func()) string
	Drain(ctx context.Context)
	Acknowledge(signal string, value any) error
	CompleteStep(ctx context.Context, next string) error
	Snapshot() runtime.Snapshot
	Flags() domain.FlagStore
	Entities() ([]string, error)
	Inspect() ([]domain.DefinitionSpec, error)
}

// ActivationResult is returned by enqueue_activation.
type ActivationResult struct {
	RequestID string           `json:"request_id" jsonschema_description:"ID assigned to the queued activation"`
	Status    runtime.Snapshot `json:"status" jsonschema_description:"Engine state after draining the queue"`
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine     Engine
	transcript *Transcript
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTranscript exposes presentations captured by t through the read_presentations tool.
func WithTranscript(t *Transcript) Option {
	return func(s *Server) { s.transcript = t }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP server for engine.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("vignette-mcp", strings.TrimSpace(version)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("enqueue_activation",
		mcp.WithDescription("Queue an activation for an entity and run it until it suspends."),
		mcp.WithString("entity", mcp.Required(), mcp.Description("Entity ID")),
		mcp.WithString("trigger", mcp.Description("confirm, touch, automatic or system (default confirm)")),
		mcp.WithOutputSchema[ActivationResult](),
	), mcp.NewStructuredToolHandler(s.handleEnqueue))

	s.mcpServer.AddTool(mcp.NewTool("acknowledge",
		mcp.WithDescription("Answer the presentation the running activation waits on (ack or choice)."),
		mcp.WithString("signal", mcp.Required(), mcp.Description("Signal name, usually ack or choice")),
		mcp.WithString("value", mcp.Description("Answer value, e.g. a 1-based choice number or label")),
	), s.handleAcknowledge)

	s.mcpServer.AddTool(mcp.NewTool("complete_step",
		mcp.WithDescription("Finish a step waiting on the host and continue at the given step."),
		mcp.WithString("next", mcp.Description("Successor step ID; empty ends the page")),
	), s.handleComplete)

	s.mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Describe the in-flight activation and queue depth."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.engine.Snapshot())
	})

	s.mcpServer.AddTool(mcp.NewTool("get_flag",
		mcp.WithDescription("Read a boolean game flag. Unknown flags read as false."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flag name")),
	), s.handleGetFlag)

	s.mcpServer.AddTool(mcp.NewTool("set_flag",
		mcp.WithDescription("Write a boolean game flag."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Flag name")),
		mcp.WithBoolean("value", mcp.Required(), mcp.Description("New value")),
	), s.handleSetFlag)

	s.mcpServer.AddTool(mcp.NewTool("list_entities",
		mcp.WithDescription("List the IDs of every authored entity."),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Entities()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list entities failed: %v", err)), nil
		}
		return jsonResult(ids)
	})

	if s.transcript != nil {
		s.mcpServer.AddTool(mcp.NewTool("read_presentations",
			mcp.WithDescription("Return and clear the messages and menus shown since the last call."),
		), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return jsonResult(s.transcript.Drain())
		})
	}
}

func (s *Server) handleEnqueue(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ActivationResult, error) {
	entity, _ := args["entity"].(string)
	if entity == "" {
		return ActivationResult{}, fmt.Errorf("entity is required")
	}
	trigger := domain.TriggerConfirm
	if raw, _ := args["trigger"].(string); raw != "" {
		t, err := domain.ParseTrigger(raw)
		if err != nil {
			return ActivationResult{}, err
		}
		trigger = t
	}

	id := s.engine.Submit(entity, trigger, nil)
	s.engine.Drain(ctx)
	s.logger.Debug("MCP activation queued", "request", id, "entity", entity)
	return ActivationResult{RequestID: id, Status: s.engine.Snapshot()}, nil
}

func (s *Server) handleAcknowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	signal, err := request.RequireString("signal")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var value any
	if raw := request.GetString("value", ""); raw != "" {
		value = raw
	}
	if err := s.engine.Acknowledge(signal, value); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("acknowledge failed: %v", err)), nil
	}
	return jsonResult(s.engine.Snapshot())
}

func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.CompleteStep(ctx, request.GetString("next", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("complete failed: %v", err)), nil
	}
	return jsonResult(s.engine.Snapshot())
}

func (s *Server) handleGetFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"name": name, "value": s.engine.Flags().GetFlagState(name)})
}

func (s *Server) handleSetFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireBool("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.engine.Flags().SetFlagState(name, value)
	return jsonResult(map[string]any{"name": name, "value": value})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(EntitiesURI, "Authored entities",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		specs, err := s.engine.Inspect()
		if err != nil {
			return nil, fmt.Errorf("failed to inspect entities: %w", err)
		}
		data, err := json.Marshal(specs)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      EntitiesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	if lister, ok := s.engine.Flags().(ports.FlagLister); ok {
		s.mcpServer.AddResource(mcp.NewResource("vignette://flags", "Current flag values",
			mcp.WithMIMEType("application/json"),
		), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			flags, err := lister.ListFlags()
			if err != nil {
				return nil, fmt.Errorf("failed to list flags: %w", err)
			}
			data, err := json.Marshal(flags)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: "vignette://flags", MIMEType: "application/json", Text: string(data)},
			}, nil
		})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
