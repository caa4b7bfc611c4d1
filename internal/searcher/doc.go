// Package searcher implements batched entity lookups against an
// Elasticsearch-compatible backend.
//
// A lookup runs in stages:
//   - private IP entities are dropped unless Options.SearchPrivateIPs is set
//   - cached results are taken from the configured cache.Cache
//   - the remaining entities are split into groups of at most 10
//   - each group is submitted through the shared limiter and sent as one
//     _msearch request
//   - each reply is mapped to one LookupResult per entity
//
// # Basic Usage
//
//	t, _ := transport.NewHTTP(transport.HTTPConfig{Timeout: 30 * time.Second})
//	s := searcher.New(t,
//	    searcher.WithLogger(logger),
//	    searcher.WithLimiter(limiter.New(limiter.Config{MaxConcurrent: 10})),
//	)
//
//	results, err := s.Search(ctx, types.NewEntities([]string{"8.8.8.8", "evil.example"}), searcher.Options{
//	    URL:   "http://localhost:9200",
//	    Index: "logs-*",
//	    Query: `{"query":{"simple_query_string":{"query":"\"{{entity}}\""}}}`,
//	})
//
// # Outcomes
//
// Every entity that survives filtering is accounted for exactly once:
//
//   - Hit: Data holds the page of hits, detail values and summary tags
//   - Miss: Data is nil
//   - Search limit: a volatile result with Summary ["Search limit reached"]
//     and Details.Limit describing the condition (queue full, gateway
//     timeout, connection reset, protocol error)
//   - Error: the group failed; its error is returned in a *types.BatchError
//
// Search-limit conditions never fail a batch. They are summarised in one
// warning log per lookup. A failed group does not affect its siblings, but
// any failure makes Search return an error once all groups are done.
//
// # Two-phase Search
//
// SearchEntity looks up one entity at a page offset and then calls
// FetchHighlights for the document ids on that page, merging the fragments
// into DetailBlock.Highlights. FetchHighlights can also be called directly
// for an already displayed page.
//
// # Error Codes
//
//	ES_1  403, 404, body not JSON
//	ES_2  400
//	ES_3  409
//	ES_4  503
//	ES_5  500
//	ES_6  200 with a malformed "responses" envelope
//	ES_7  200 with a sub-query error
//	ES_8  any other status
//
// # Thread Safety
//
// A Searcher is safe for concurrent use. The limiter is built once, either
// passed in with WithLimiter or created from the first call's options, and is
// shared by every lookup.
package searcher
