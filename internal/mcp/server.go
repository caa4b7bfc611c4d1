package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "eslookup-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the lookup dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	options  searcher.Options
	logger   *zap.Logger
	closers  []func() error
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLogger sets the logger used by tool handlers
func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCloser registers a function run when Serve returns, such as closing
// a result cache.
func WithCloser(fn func() error) ServerOption {
	return func(s *Server) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

// NewServer creates a new MCP server instance. opts are the base lookup
// options; tool arguments may override index, query and paging per call.
func NewServer(srch *searcher.Searcher, opts searcher.Options, serverOpts ...ServerOption) (*Server, error) {
	if srch == nil {
		return nil, errors.New("searcher is required")
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		searcher: srch,
		options:  opts,
		logger:   zap.NewNop(),
	}
	for _, opt := range serverOpts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer s.close()
	s.logger.Info("serving MCP on stdio",
		zap.String("url", s.options.URL),
		zap.String("index", s.options.Index))
	return server.ServeStdio(s.mcp)
}

func (s *Server) close() {
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(lookupEntitiesTool(), s.handleLookupEntities)
	s.mcp.AddTool(searchEntityTool(), s.handleSearchEntity)
	s.mcp.AddTool(fetchHighlightsTool(), s.handleFetchHighlights)
	s.mcp.AddTool(pageStateTool(), s.handlePageState)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
