package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/paging"
	"github.com/dshills/eslookup-mcp/internal/searcher"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeConfiguration   = -32001 // Lookup options are invalid
	ErrorCodeLookupFailed    = -32002 // One or more entity groups failed
	ErrorCodeHighlightFailed = -32003 // Highlight request failed
	ErrorCodeInvalidPageSize = -32004 // Page size is not positive
)

// handleLookupEntities handles the lookup_entities tool invocation
func (s *Server) handleLookupEntities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	values := getStringSlice(args, "entities")
	if len(values) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "entities parameter is required", map[string]interface{}{
			"param":  "entities",
			"reason": "missing or empty",
		})
	}

	opts, err := s.callOptions(args)
	if err != nil {
		return nil, err
	}
	opts.SearchPrivateIPs = getBoolDefault(args, "search_private_ips", opts.SearchPrivateIPs)

	entities := types.NewEntities(values)
	results, err := s.searcher.Search(ctx, entities, opts)
	if err != nil {
		return nil, lookupError(err)
	}

	hits, misses, limited := 0, 0, 0
	for _, r := range results {
		switch {
		case r.LimitState() != nil:
			limited++
		case r.IsMiss():
			misses++
		default:
			hits++
		}
	}

	response := map[string]interface{}{
		"entities_submitted": len(entities),
		"entities_looked_up": len(results),
		"hits":               hits,
		"misses":             misses,
		"limited":            limited,
		"results":            results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchEntity handles the search_entity tool invocation
func (s *Server) handleSearchEntity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	value := strings.TrimSpace(getStringDefault(args, "entity", ""))
	if value == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "entity parameter is required", map[string]interface{}{
			"param":  "entity",
			"reason": "missing or empty",
		})
	}

	from := getIntDefault(args, "from", 0)
	if from < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "from must be >= 0", map[string]interface{}{
			"param": "from",
			"value": from,
		})
	}

	opts, err := s.callOptions(args)
	if err != nil {
		return nil, err
	}

	block, err := s.searcher.SearchEntity(ctx, types.NewEntity(value), from, opts)
	if err != nil {
		return nil, lookupError(err)
	}

	response := map[string]interface{}{
		"entity":  value,
		"details": block,
	}
	if block.Size > 0 {
		if page, err := paging.ForBlock(*block); err == nil {
			response["page"] = page
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFetchHighlights handles the fetch_highlights tool invocation
func (s *Server) handleFetchHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	value := strings.TrimSpace(getStringDefault(args, "entity", ""))
	if value == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "entity parameter is required", map[string]interface{}{
			"param":  "entity",
			"reason": "missing or empty",
		})
	}

	ids := getStringSlice(args, "document_ids")
	if len(ids) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_ids parameter is required", map[string]interface{}{
			"param":  "document_ids",
			"reason": "missing or empty",
		})
	}

	opts, err := s.callOptions(args)
	if err != nil {
		return nil, err
	}

	highlights, err := s.searcher.FetchHighlights(ctx, types.NewEntity(value), ids, opts)
	if err != nil {
		s.logger.Error("highlight fetch failed", zap.String("entity", value), zap.Error(err))
		return nil, newMCPError(ErrorCodeHighlightFailed, "highlight fetch failed", searchErrorData(err))
	}

	response := map[string]interface{}{
		"entity":            value,
		"index":             opts.Index,
		"highlight_enabled": opts.HighlightEnabled,
		"highlights":        highlights,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handlePageState handles the page_state tool invocation
func (s *Server) handlePageState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	if _, ok := args["total_results"]; !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "total_results parameter is required", map[string]interface{}{
			"param":  "total_results",
			"reason": "missing",
		})
	}

	from := getIntDefault(args, "from", 0)
	size := getIntDefault(args, "size", 0)
	total := getIntDefault(args, "total_results", 0)

	page, err := paging.Compute(from, size, total)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidPageSize, "size must be greater than 0", map[string]interface{}{
			"param": "size",
			"value": size,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"from":          from,
		"size":          size,
		"total_results": total,
		"page":          page,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.searcher.Status()

	response := map[string]interface{}{
		"server": map[string]interface{}{
			"name":    ServerName,
			"version": ServerVersion,
		},
		"backend": map[string]interface{}{
			"url":                s.options.URL,
			"index":              s.options.Index,
			"highlight_enabled":  s.options.HighlightEnabled,
			"search_private_ips": s.options.SearchPrivateIPs,
			"default_page_size":  s.options.DefaultPageSize,
		},
		"limiter": map[string]interface{}{
			"ready":     status.LimiterReady,
			"running":   status.Limiter.Running,
			"queued":    status.Limiter.Queued,
			"dropped":   status.Limiter.Dropped,
			"completed": status.Limiter.Completed,
		},
		"cache": map[string]interface{}{
			"enabled": status.CacheEnabled,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// callOptions applies per-call overrides to the base options
func (s *Server) callOptions(args map[string]interface{}) (searcher.Options, error) {
	opts := s.options
	opts.Index = getStringDefault(args, "index", opts.Index)
	opts.Query = getStringDefault(args, "query", opts.Query)

	if _, ok := args["page_size"]; ok {
		size := getIntDefault(args, "page_size", 0)
		if size < 1 {
			return opts, newMCPError(ErrorCodeInvalidParams, "page_size must be >= 1", map[string]interface{}{
				"param": "page_size",
				"value": size,
			})
		}
		opts.DefaultPageSize = size
	}

	return opts, nil
}

// Helper functions

// lookupError converts a searcher error into an MCP error
func lookupError(err error) error {
	if errors.Is(err, types.ErrConfiguration) {
		return newMCPError(ErrorCodeConfiguration, "invalid lookup options", searchErrorData(err))
	}

	var batch *types.BatchError
	if errors.As(err, &batch) {
		failures := make([]map[string]interface{}, 0, len(batch.Errors))
		for _, se := range batch.Errors {
			failures = append(failures, searchErrorData(se))
		}
		return newMCPError(ErrorCodeLookupFailed, batch.Detail, map[string]interface{}{
			"detail": batch.Detail,
			"errors": failures,
		})
	}

	return newMCPError(ErrorCodeInternalError, "lookup failed", searchErrorData(err))
}

// searchErrorData renders the user-facing fields of a search error
func searchErrorData(err error) map[string]interface{} {
	se := types.AsSearchError(err)
	data := map[string]interface{}{
		"detail": se.Detail,
	}
	if se.Code != "" {
		data["code"] = se.Code
	}
	if se.Status != "" {
		data["status"] = se.Status
	}
	if se.Title != "" {
		data["title"] = se.Title
	}
	if se.Err != nil {
		data["error"] = se.Err.Error()
	}
	return data
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, skipping blank items
func getStringSlice(args map[string]interface{}, key string) []string {
	var out []string
	switch val := args[key].(type) {
	case []string:
		for _, v := range val {
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		}
	case []interface{}:
		for _, v := range val {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
