package searcher

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/internal/query"
	"github.com/dshills/eslookup-mcp/internal/transport"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// keywordSuffix marks keyword sub-fields, which duplicate their text field
const keywordSuffix = ".keyword"

// FetchHighlights retrieves highlighted fragments for documentIDs, keyed by
// document id. Every returned hit appears in the map, with an empty list when
// the backend sent no highlight for it. With highlighting disabled the map is
// empty and no request is made.
func (s *Searcher) FetchHighlights(ctx context.Context, entity types.Entity, documentIDs []string, opts Options) (map[string][]types.FieldHighlight, error) {
	opts = opts.withDefaults()
	if !opts.HighlightEnabled {
		return map[string][]types.FieldHighlight{}, nil
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	body, err := s.engine.BuildHighlightQuery(query.HighlightRequest{
		Template:    opts.HighlightQuery,
		EntityValue: entity.Value,
		DocumentIDs: documentIDs,
		PageSize:    opts.DefaultPageSize,
		PreTag:      opts.HighlightPreTag,
		PostTag:     opts.HighlightPostTag,
	})
	if err != nil {
		return nil, err
	}

	req := &transport.Request{
		URI:     opts.highlightURI(),
		Method:  http.MethodGet,
		Headers: transport.WithContentType(opts.Headers, transport.ContentTypeJSON),
		Body:    body,
	}
	s.logger.Debug("highlight request payload",
		zap.String("uri", req.URI),
		zap.String("entity", entity.Value),
		zap.ByteString("body", body))

	resp, err := s.transport.Send(ctx, req)
	if err != nil {
		return nil, &types.SearchError{
			Kind:   types.ErrHighlightFetch,
			Detail: "Encountered an error loading highlights",
			Err:    err,
		}
	}

	highlights, ok := parseHighlights(resp.Body)
	if !ok {
		s.logger.Error("error processing highlight results",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", resp.Body))
		return nil, &types.SearchError{
			Kind:   types.ErrHighlightResponseFormat,
			Detail: "Error processing highlight results",
			Meta:   map[string]any{"body": string(resp.Body)},
		}
	}

	s.logger.Debug("highlight results", zap.Int("documents", len(highlights)))
	return highlights, nil
}

// parseHighlights maps hits.hits[*] to their non-keyword highlight fields,
// sorted by field name
func parseHighlights(body []byte) (map[string][]types.FieldHighlight, bool) {
	var parsed struct {
		Hits *struct {
			Hits json.RawMessage `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Hits == nil {
		return nil, false
	}
	raw := bytes.TrimSpace(parsed.Hits.Hits)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var hits []types.RawHit
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, false
	}

	out := make(map[string][]types.FieldHighlight, len(hits))
	for _, hit := range hits {
		names := make([]string, 0, len(hit.Highlight))
		for name := range hit.Highlight {
			if !strings.HasSuffix(name, keywordSuffix) {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		fieldHighlights := make([]types.FieldHighlight, 0, len(names))
		for _, name := range names {
			fieldHighlights = append(fieldHighlights, types.FieldHighlight{
				FieldName:   name,
				FieldValues: hit.Highlight[name],
			})
		}
		out[hit.ID] = fieldHighlights
	}
	return out, true
}

// SearchEntity runs the two-phase lookup for a single entity: search at
// offset from, then load highlights for the returned page and merge them into
// the detail block. A miss, or an entity excluded by the private-IP policy,
// yields an empty block. Limit results are returned without highlights.
func (s *Searcher) SearchEntity(ctx context.Context, entity types.Entity, from int, opts Options) (*types.DetailBlock, error) {
	opts.From = from

	results, err := s.Search(ctx, []types.Entity{entity}, opts)
	if err != nil {
		s.logger.Error("error running search", zap.String("entity", entity.Value), zap.Error(err))
		return nil, err
	}

	if len(results) == 0 || results[0].Data == nil {
		return &types.DetailBlock{Results: []types.HitResult{}}, nil
	}

	block := results[0].Data.Details
	if block.Limit != nil {
		return &block, nil
	}

	ids := block.DocumentIDs()
	if len(ids) == 0 {
		return &block, nil
	}

	highlights, err := s.FetchHighlights(ctx, entity, ids, opts)
	if err != nil {
		s.logger.Error("error loading highlights", zap.String("entity", entity.Value), zap.Error(err))
		return nil, err
	}
	block.Highlights = highlights

	return &block, nil
}
