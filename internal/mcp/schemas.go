package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// lookupEntitiesTool returns the tool definition for lookup_entities
func lookupEntitiesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "lookup_entities",
		Description: "Look up indicators (IPs, domains, hashes, free text) in Elasticsearch and summarise the matching documents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entities": map[string]interface{}{
					"type":        "array",
					"description": "Entity values to look up",
					"items": map[string]interface{}{
						"type": "string",
					},
					"minItems": 1,
				},
				"index": map[string]interface{}{
					"type":        "string",
					"description": "Index pattern to search, overrides the configured index",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query template (JSON) using {{entity}} as the placeholder, overrides the configured query",
				},
				"page_size": map[string]interface{}{
					"type":        "integer",
					"description": "Number of hits returned per entity",
					"minimum":     1,
				},
				"search_private_ips": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, private IP addresses are looked up instead of skipped",
				},
			},
			Required: []string{"entities"},
		},
	}
}

// searchEntityTool returns the tool definition for search_entity
func searchEntityTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_entity",
		Description: "Fetch one page of hits for a single entity, with highlights when enabled",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity value to search for",
				},
				"from": map[string]interface{}{
					"type":        "integer",
					"description": "Offset of the first hit on the page",
					"default":     0,
					"minimum":     0,
				},
				"page_size": map[string]interface{}{
					"type":        "integer",
					"description": "Number of hits on the page",
					"minimum":     1,
				},
				"index": map[string]interface{}{
					"type":        "string",
					"description": "Index pattern to search, overrides the configured index",
				},
			},
			Required: []string{"entity"},
		},
	}
}

// fetchHighlightsTool returns the tool definition for fetch_highlights
func fetchHighlightsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "fetch_highlights",
		Description: "Fetch highlighted fragments for documents already returned for an entity",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity value the documents were found for",
				},
				"document_ids": map[string]interface{}{
					"type":        "array",
					"description": "Document ids to highlight",
					"items": map[string]interface{}{
						"type": "string",
					},
					"minItems": 1,
				},
				"index": map[string]interface{}{
					"type":        "string",
					"description": "Index pattern the documents came from, overrides the configured index",
				},
				"page_size": map[string]interface{}{
					"type":        "integer",
					"description": "Page size used for the original search",
					"minimum":     1,
				},
			},
			Required: []string{"entity", "document_ids"},
		},
	}
}

// pageStateTool returns the tool definition for page_state
func pageStateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "page_state",
		Description: "Compute pagination state (item range, page indexes, button state) for a result page",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"from": map[string]interface{}{
					"type":        "integer",
					"description": "Offset of the first hit on the page",
					"default":     0,
				},
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "Page size",
					"minimum":     1,
				},
				"total_results": map[string]interface{}{
					"type":        "integer",
					"description": "Total number of matching documents",
					"minimum":     0,
				},
			},
			Required: []string{"size", "total_results"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report the configured backend, limiter counters and cache state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
