package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SearchLimitSummary is the summary tag shown for limit-class results
const SearchLimitSummary = "Search limit reached"

// FieldRule is a compiled "label:path" field selector
type FieldRule struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// RawHit is a backend document record. The raw bytes are kept so that field
// extraction and re-serialization see exactly what the backend returned.
type RawHit struct {
	ID        string
	Source    json.RawMessage
	Highlight map[string][]string

	raw json.RawMessage
}

// UnmarshalJSON decodes the known hit fields and retains the raw document
func (h *RawHit) UnmarshalJSON(data []byte) error {
	var known struct {
		ID        string              `json:"_id"`
		Source    json.RawMessage     `json:"_source"`
		Highlight map[string][]string `json:"highlight"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode hit: %w", err)
	}

	h.ID = known.ID
	h.Source = known.Source
	h.Highlight = known.Highlight
	h.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the hit as the backend sent it
func (h RawHit) MarshalJSON() ([]byte, error) {
	if len(h.raw) > 0 {
		return h.raw, nil
	}

	out := map[string]interface{}{"_id": h.ID}
	if len(h.Source) > 0 {
		out["_source"] = h.Source
	}
	if h.Highlight != nil {
		out["highlight"] = h.Highlight
	}
	return json.Marshal(out)
}

// Raw returns the raw hit document
func (h RawHit) Raw() []byte {
	if len(h.raw) > 0 {
		return h.raw
	}
	b, _ := h.MarshalJSON()
	return b
}

// DetailValue is one extracted label/value pair for the detail view
type DetailValue struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// HitResult wraps a raw hit with its extracted detail values
type HitResult struct {
	Hit     RawHit        `json:"hit"`
	Details []DetailValue `json:"details"`
}

// FieldHighlight holds highlighted fragments for one document field
type FieldHighlight struct {
	FieldName   string   `json:"fieldName"`
	FieldValues []string `json:"fieldValues"`
}

// SearchLimitState flags degraded, non-cacheable lookup outcomes
type SearchLimitState struct {
	MaxRequestQueueLimitHit bool `json:"maxRequestQueueLimitHit"`
	IsConnectionReset       bool `json:"isConnectionReset"`
	IsGatewayTimeout        bool `json:"isGatewayTimeout"`
	IsProtoError            bool `json:"isProtoError"`
}

// Any reports whether any limit flag is set
func (s SearchLimitState) Any() bool {
	return s.MaxRequestQueueLimitHit || s.IsConnectionReset || s.IsGatewayTimeout || s.IsProtoError
}

// Err returns the set flags as their sentinel errors joined together, or nil
// when no flag is set
func (s SearchLimitState) Err() error {
	var errs []error
	if s.MaxRequestQueueLimitHit {
		errs = append(errs, ErrCapacityExceeded)
	}
	if s.IsGatewayTimeout {
		errs = append(errs, ErrGatewayTimeout)
	}
	if s.IsConnectionReset {
		errs = append(errs, ErrConnectionReset)
	}
	if s.IsProtoError {
		errs = append(errs, ErrProtocol)
	}
	return errors.Join(errs...)
}

// DetailBlock is the expanded view for a single entity's page of hits
type DetailBlock struct {
	TotalResults int                         `json:"totalResults"`
	From         int                         `json:"from"`
	Size         int                         `json:"size"`
	Results      []HitResult                 `json:"results"`
	Tags         []string                    `json:"tags,omitempty"`
	Highlights   map[string][]FieldHighlight `json:"highlights,omitempty"`
	Queries      []string                    `json:"queries,omitempty"`
	Limit        *SearchLimitState           `json:"limit,omitempty"`
}

// DocumentIDs returns the ids of the hits on this page in backend order
func (d *DetailBlock) DocumentIDs() []string {
	ids := make([]string, 0, len(d.Results))
	for _, r := range d.Results {
		ids = append(ids, r.Hit.ID)
	}
	return ids
}

// LookupData is the payload of a non-miss lookup
type LookupData struct {
	Summary []string    `json:"summary"`
	Details DetailBlock `json:"details"`
}

// LookupResult is the outcome for one entity. A nil Data is a miss.
type LookupResult struct {
	Entity     Entity      `json:"entity"`
	Data       *LookupData `json:"data"`
	IsVolatile bool        `json:"isVolatile,omitempty"`
}

// IsMiss reports whether no documents matched the entity
func (r LookupResult) IsMiss() bool {
	return r.Data == nil
}

// LimitState returns the search limit state, if this is a limit-class result
func (r LookupResult) LimitState() *SearchLimitState {
	if r.Data == nil {
		return nil
	}
	return r.Data.Details.Limit
}

// NewLimitResult builds the degraded result used for limit-class conditions
func NewLimitResult(entity Entity, state SearchLimitState) LookupResult {
	return LookupResult{
		Entity:     entity,
		IsVolatile: true,
		Data: &LookupData{
			Summary: []string{SearchLimitSummary},
			Details: DetailBlock{
				Results: []HitResult{},
				Limit:   &state,
			},
		},
	}
}

// PageState is the derived pagination state for a result page
type PageState struct {
	StartItem          int  `json:"startItem"`
	EndItem            int  `json:"endItem"`
	NextPageIndex      int  `json:"nextPageIndex"`
	PrevPageIndex      int  `json:"prevPageIndex"`
	FirstPageIndex     int  `json:"firstPageIndex"`
	LastPageIndex      int  `json:"lastPageIndex"`
	DisableNextButtons bool `json:"disableNextButtons"`
	DisablePrevButtons bool `json:"disablePrevButtons"`
	AllResultsReturned bool `json:"allResultsReturned"`
}
