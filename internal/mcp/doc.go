// Package mcp implements the Model Context Protocol server for eslookup-mcp.
//
// The server exposes the entity lookup pipeline as MCP tools over stdio.
// All tools share one searcher.Searcher, so the request limiter and the
// result cache are shared across concurrent tool calls.
//
// # Available Tools
//
//   - lookup_entities: batched lookup of many entities with summary tags
//   - search_entity: one page of hits for a single entity, with highlights
//   - fetch_highlights: highlight fragments for already displayed documents
//   - page_state: pagination state for a result page
//   - get_status: backend settings, limiter counters and cache state
//
// # Tool: lookup_entities
//
//	Request:
//	{
//	  "name": "lookup_entities",
//	  "arguments": {
//	    "entities": ["8.8.8.8", "evil.example"],
//	    "index": "logs-*",
//	    "page_size": 10
//	  }
//	}
//
//	Response:
//	{
//	  "entities_submitted": 2,
//	  "entities_looked_up": 2,
//	  "hits": 1,
//	  "misses": 1,
//	  "limited": 0,
//	  "results": [
//	    {
//	      "entity": {"value": "8.8.8.8", "type": "IPv4", "isPrivateIP": false},
//	      "data": {
//	        "summary": ["Host: dns-1", "+3 more"],
//	        "details": {"totalResults": 42, "from": 0, "size": 10, "results": [...]}
//	      }
//	    },
//	    {"entity": {"value": "evil.example", "type": "Other"}, "data": null}
//	  ]
//	}
//
// Limited results carry isVolatile and details.limit. They are never
// cached and never reported as errors.
//
// # Tool: search_entity
//
//	Request:
//	{
//	  "name": "search_entity",
//	  "arguments": {"entity": "8.8.8.8", "from": 10}
//	}
//
// The response holds the detail block, with highlights keyed by document
// id, and the page state for the block.
//
// # Tool: page_state
//
//	Request:
//	{
//	  "name": "page_state",
//	  "arguments": {"from": 10, "size": 10, "total_results": 25}
//	}
//
//	Response:
//	{
//	  "page": {
//	    "startItem": 11, "endItem": 20,
//	    "nextPageIndex": 20, "prevPageIndex": 0,
//	    "firstPageIndex": 0, "lastPageIndex": 20,
//	    "disableNextButtons": false, "disablePrevButtons": false,
//	    "allResultsReturned": false
//	  }
//	}
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "eslookup": {
//	      "command": "/usr/local/bin/eslookup",
//	      "args": ["serve"],
//	      "env": {
//	        "ESLOOKUP_URL": "https://es.internal:9200",
//	        "ESLOOKUP_INDEX": "logs-*",
//	        "ESLOOKUP_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// Handlers return *MCPError values. Backend failures carry the user-facing
// code, status and detail of each failed group:
//
//	{
//	  "code": -32002,
//	  "message": "Search query syntax error",
//	  "data": {
//	    "detail": "Search query syntax error",
//	    "errors": [{"code": "ES_2", "status": "400", "detail": "..."}]
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid parameters
//   - -32603: Internal error
//   - -32001: Invalid lookup options
//   - -32002: Lookup failed
//   - -32003: Highlight fetch failed
//   - -32004: Invalid page size
package mcp
