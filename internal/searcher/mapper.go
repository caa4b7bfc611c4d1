package searcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dshills/eslookup-mcp/internal/fields"
	"github.com/dshills/eslookup-mcp/internal/query"
	"github.com/dshills/eslookup-mcp/internal/transport"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// statusError describes the user-facing error for a non-200 status
type statusError struct {
	code   string
	title  string
	detail string
}

var statusErrors = map[int]statusError{
	http.StatusForbidden:           {"ES_1", "Forbidden", "Access to the resource is forbidden"},
	http.StatusNotFound:            {"ES_1", "Not Found", "Not Found"},
	http.StatusBadRequest:          {"ES_2", "Bad Request", "Invalid Search, please check search parameters"},
	http.StatusConflict:            {"ES_3", "Conflict", "There was a conflict with your search"},
	http.StatusServiceUnavailable:  {"ES_4", "Service Unavailable", "Service is currently unavailable for search results"},
	http.StatusInternalServerError: {"ES_5", "Internal Server Error", "Internal Server error, please check your instance"},
}

// subResponse is one entry of a multi-search "responses" array
type subResponse struct {
	Error json.RawMessage `json:"error"`
	Hits  *struct {
		Total json.RawMessage `json:"total"`
		Hits  []types.RawHit  `json:"hits"`
	} `json:"hits"`
}

func (r subResponse) isMiss() bool {
	return r.Hits == nil || len(r.Hits.Hits) == 0
}

// transportError wraps a failed request. The cause chain is kept so limit
// classification can recognise resets, protocol errors and timeouts.
func transportError(err error) *types.SearchError {
	se := &types.SearchError{
		Kind:   types.ErrTransport,
		Detail: "Error making HTTP request",
		Err:    err,
	}
	if code := transport.Code(err); code != "" {
		se.Meta = map[string]any{"code": code}
	}
	return se
}

// mapResponse converts a multi-search reply into per-entity results.
// Sub-responses are matched to group entities by position.
func mapResponse(resp *transport.Response, group []types.Entity, ms *query.MultiSearch, rules fieldRules, maxSummaryTags int) ([]types.LookupResult, error) {
	status := strconv.Itoa(resp.StatusCode)

	parsed, ok := parseBody(resp.Body)
	if !ok {
		return nil, &types.SearchError{
			Kind:   types.ErrResponseParse,
			Status: status,
			Code:   "ES_1",
			Title:  "JSON Parse Error",
			Detail: "JSON Parse Error of HTTP Response",
			Meta:   map[string]any{"body": string(resp.Body)},
		}
	}
	meta := map[string]any{"body": parsed}

	if resp.StatusCode != http.StatusOK {
		se, known := statusErrors[resp.StatusCode]
		if !known {
			return nil, &types.SearchError{
				Kind:   types.ErrHTTPStatus,
				Status: status,
				Code:   "ES_8",
				Title:  "Unexpected HTTP Error",
				Detail: fmt.Sprintf("Unexpected HTTP Response Status Code: %d", resp.StatusCode),
				Meta:   meta,
			}
		}
		return nil, &types.SearchError{
			Kind:   types.ErrHTTPStatus,
			Status: status,
			Code:   se.code,
			Title:  se.title,
			Detail: se.detail,
			Meta:   meta,
		}
	}

	responses, err := decodeResponses(resp.Body)
	if err != nil {
		return nil, &types.SearchError{
			Kind:   types.ErrMalformedEnvelope,
			Status: status,
			Code:   "ES_6",
			Title:  "Unexpected HTTP Error",
			Detail: `Unexpected Response Payload Format.  "body.responses" should be an array`,
			Meta:   meta,
			Err:    err,
		}
	}

	for _, r := range responses {
		if len(r.Error) > 0 {
			return nil, &types.SearchError{
				Kind:   types.ErrQuerySyntax,
				Status: status,
				Code:   "ES_7",
				Title:  "There is an error with the search query.",
				Detail: "Search query error encountered.  Please check your Search Query syntax.",
				Meta:   meta,
			}
		}
	}

	// An empty array is reported as a limit condition by the caller
	if len(responses) == 0 {
		return []types.LookupResult{}, nil
	}
	if len(responses) != len(group) {
		return nil, &types.SearchError{
			Kind:   types.ErrMalformedEnvelope,
			Status: status,
			Code:   "ES_6",
			Title:  "Unexpected HTTP Error",
			Detail: fmt.Sprintf("Unexpected Response Payload Format.  Expected %d responses, got %d", len(group), len(responses)),
			Meta:   meta,
		}
	}

	results := make([]types.LookupResult, 0, len(group))
	for i, r := range responses {
		if r.isMiss() {
			results = append(results, types.LookupResult{Entity: group[i]})
			continue
		}

		hits := make([]types.HitResult, 0, len(r.Hits.Hits))
		for _, hit := range r.Hits.Hits {
			hits = append(hits, types.HitResult{
				Hit:     hit,
				Details: detailValues(hit, rules.detail),
			})
		}

		results = append(results, types.LookupResult{
			Entity: group[i],
			Data: &types.LookupData{
				Summary: []string{},
				Details: types.DetailBlock{
					TotalResults: totalHits(r.Hits.Total, len(r.Hits.Hits)),
					From:         ms.From,
					Size:         ms.Size,
					Results:      hits,
					Tags:         summaryTags(r.Hits.Hits, rules.summary, maxSummaryTags),
					Queries:      ms.Queries,
				},
			},
		})
	}

	return results, nil
}

// parseBody decodes body for error metadata. Empty and invalid bodies fail.
func parseBody(body []byte) (any, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}

// decodeResponses extracts the "responses" array of a multi-search body
func decodeResponses(body []byte) ([]subResponse, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("response body is not an object: %w", err)
	}

	raw := bytes.TrimSpace(envelope["responses"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("responses is not an array")
	}

	var responses []subResponse
	if err := json.Unmarshal(raw, &responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return responses, nil
}

// totalHits reads hits.total as either {"value": n} or a bare number
func totalHits(raw json.RawMessage, fallback int) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback
	}

	if raw[0] == '{' {
		var total struct {
			Value json.Number `json:"value"`
		}
		if err := json.Unmarshal(raw, &total); err != nil {
			return fallback
		}
		raw = []byte(total.Value)
	}

	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fallback
	}
	return int(n)
}

func detailValues(hit types.RawHit, rules []types.FieldRule) []types.DetailValue {
	values := make([]types.DetailValue, 0, len(rules))
	raw := hit.Raw()
	for _, rule := range rules {
		value, ok := fields.Extract(raw, rule.Path)
		if !ok {
			continue
		}
		values = append(values, types.DetailValue{Label: rule.Label, Value: value})
	}
	return values
}

// summaryTags renders summary field values across all hits, skipping values
// already seen (strings compare case-insensitively after trimming). When
// maxTags is positive and exceeded, the list is cut and "+N more" appended.
func summaryTags(hits []types.RawHit, rules []types.FieldRule, maxTags int) []string {
	tags := []string{}
	seen := make(map[string]struct{})

	for _, hit := range hits {
		raw := hit.Raw()
		for _, rule := range rules {
			value, ok := fields.Extract(raw, rule.Path)
			if !ok {
				continue
			}

			key := tagKey(value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			text := fields.FormatValue(value)
			if rule.Label != "" {
				text = rule.Label + ": " + text
			}
			tags = append(tags, text)
		}
	}

	if maxTags > 0 && len(tags) > maxTags {
		more := len(tags) - maxTags
		tags = append(tags[:maxTags:maxTags], fmt.Sprintf("+%d more", more))
	}
	return tags
}

func tagKey(value any) string {
	if s, ok := value.(string); ok {
		return "s:" + strings.ToLower(strings.TrimSpace(s))
	}
	return "v:" + fields.FormatValue(value)
}
