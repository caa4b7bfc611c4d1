package searcher

import (
	"strings"
	"time"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/limiter"
	"github.com/dshills/eslookup-mcp/internal/query"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// DefaultPageSize is used when Options.DefaultPageSize is not positive
const DefaultPageSize = 10

// Options are the per-call lookup options
type Options struct {
	URL   string // Base URL of the search backend
	Index string // Index (or comma separated indices) to search
	Query string // JSON query template containing {{entity}}

	HighlightEnabled bool
	HighlightQuery   string
	HighlightPreTag  string
	HighlightPostTag string

	DefaultPageSize int
	MaxSummaryTags  int // 0 disables truncation
	From            int // Page offset for single-entity searches

	DetailFields  string // "label:path,..." shown in the detail block
	SummaryFields string // "label:path,..." rendered as summary tags

	SearchPrivateIPs bool

	// Headers are sent with every backend request (resolved auth included)
	Headers map[string]string

	// Limiter settings, used only when the Searcher has no limiter yet
	MaxConcurrent int
	MinTime       time.Duration
	QueueDepth    int
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = DefaultPageSize
	}
	if o.From < 0 {
		o.From = 0
	}
	if o.HighlightPreTag == "" {
		o.HighlightPreTag = query.DefaultPreTag
	}
	if o.HighlightPostTag == "" {
		o.HighlightPostTag = query.DefaultPostTag
	}
	o.URL = strings.TrimRight(o.URL, "/")
	return o
}

func (o Options) validate() error {
	if o.URL == "" {
		return types.NewConfigurationError("You must provide a valid Elasticsearch URL.", nil)
	}
	if o.Index == "" {
		return types.NewConfigurationError("You must provide the Index you want searched in Elasticsearch", nil)
	}
	if o.Query == "" {
		return types.NewConfigurationError("You must provide a Search Query", nil)
	}
	return nil
}

func (o Options) limiterConfig() limiter.Config {
	return limiter.Config{
		MaxConcurrent: o.MaxConcurrent,
		MinTime:       o.MinTime,
		QueueDepth:    o.QueueDepth,
	}
}

func (o Options) cacheKeyParams() cache.KeyParams {
	return cache.KeyParams{
		URL:            o.URL,
		Index:          o.Index,
		Query:          o.Query,
		PageSize:       o.DefaultPageSize,
		From:           o.From,
		DetailFields:   o.DetailFields,
		SummaryFields:  o.SummaryFields,
		MaxSummaryTags: o.MaxSummaryTags,
	}
}

func (o Options) searchURI() string {
	return o.URL + "/" + o.Index + "/_msearch"
}

func (o Options) highlightURI() string {
	return o.URL + "/" + o.Index + "/_search"
}
