package mcpserver

import (
	"context"
	"errors"
	"io"
	stdlog "log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// Searcher renders a search as the JSON payload the chat agent sees.
type Searcher interface {
	Search(ctx context.Context, query string) (core.RecommendationResult, string, error)
}

// Server exposes search_vr_apps to MCP clients over stdio.
type Server struct {
	mcp      *server.MCPServer
	searcher Searcher
	in       io.Reader
	out      io.Writer
	errLog   io.Writer
}

func New(searcher Searcher, in io.Reader, out, errLog io.Writer) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(core.AppName, core.AppVersion, server.WithToolCapabilities(false)),
		searcher: searcher,
		in:       in,
		out:      out,
		errLog:   errLog,
	}
	s.mcp.AddTool(Tool(), s.handleSearch)
	return s
}

// Tool mirrors the agent's search tool definition.
func Tool() mcp.Tool {
	fn := agent.SearchTool.Function
	return mcp.NewToolWithRawSchema(fn.Name, fn.Description, fn.Parameters)
}

// Start serves until ctx is cancelled or the client closes stdin.
func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("tool", agent.SearchToolName).Msg("mcp server listening on stdio")

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(s.errLog, "mcp: ", stdlog.LstdFlags))

	err := stdio.Listen(ctx, s.in, s.out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")

	_, payload, err := s.searcher.Search(ctx, query)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("query", query).Msg("mcp search failed")
		res := mcp.NewToolResultText(payload)
		res.IsError = true
		return res, nil
	}
	return mcp.NewToolResultText(payload), nil
}
