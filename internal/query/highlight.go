package query

import (
	"encoding/json"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

const (
	// DefaultPreTag and DefaultPostTag wrap highlighted terms
	DefaultPreTag  = `<span class="highlight">`
	DefaultPostTag = `</span>`

	// HighlightFragmentSize is the fragment size requested from the backend
	HighlightFragmentSize = 200
)

// HighlightRequest describes a highlight query for one page of documents
type HighlightRequest struct {
	Template    string
	EntityValue string
	DocumentIDs []string
	PageSize    int
	PreTag      string
	PostTag     string
}

type highlightBody struct {
	Source    bool           `json:"_source"`
	Query     idsQuery       `json:"query"`
	Highlight highlightBlock `json:"highlight"`
	From      int            `json:"from"`
	Size      int            `json:"size"`
}

type idsQuery struct {
	IDs struct {
		Values []string `json:"values"`
	} `json:"ids"`
}

type highlightBlock struct {
	Fields         map[string]struct{} `json:"fields"`
	HighlightQuery json.RawMessage     `json:"highlight_query,omitempty"`
	PreTags        []string            `json:"pre_tags"`
	PostTags       []string            `json:"post_tags"`
	Encoder        string              `json:"encoder"`
	FragmentSize   int                 `json:"fragment_size"`
}

// BuildHighlightQuery builds an ids-filtered search that returns no source,
// only highlight fragments computed with the template's query clause.
// The ids already select the page, so the body always starts at offset 0.
func (e *Engine) BuildHighlightQuery(req HighlightRequest) ([]byte, error) {
	paged, err := e.WithPaging(req.Template, req.PageSize, 0)
	if err != nil {
		return nil, err
	}

	rendered := paged.Render(req.EntityValue)
	var parsed struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.Unmarshal([]byte(rendered), &parsed); err != nil {
		return nil, types.NewConfigurationError("Highlight query is not valid JSON after entity substitution", err)
	}

	preTag, postTag := req.PreTag, req.PostTag
	if preTag == "" {
		preTag = DefaultPreTag
	}
	if postTag == "" {
		postTag = DefaultPostTag
	}

	ids := req.DocumentIDs
	if ids == nil {
		ids = []string{}
	}

	body := highlightBody{
		Source: false,
		Highlight: highlightBlock{
			Fields:         map[string]struct{}{"*": {}},
			HighlightQuery: parsed.Query,
			PreTags:        []string{preTag},
			PostTags:       []string{postTag},
			Encoder:        "html",
			FragmentSize:   HighlightFragmentSize,
		},
		From: 0,
		Size: max(paged.Size, len(ids)),
	}
	body.Query.IDs.Values = ids

	return json.Marshal(body)
}
