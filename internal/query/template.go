package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

const (
	// EntityPlaceholder is replaced by the escaped entity value
	EntityPlaceholder = "{{entity}}"

	// DefaultPagedCacheSize bounds the number of memoized paged templates
	DefaultPagedCacheSize = 256
)

// Paged is a query template with from/size injected
type Paged struct {
	Query string
	From  int
	Size  int
}

// Render substitutes the entity into the paged query
func (p Paged) Render(entityValue string) string {
	return strings.ReplaceAll(p.Query, EntityPlaceholder, EscapeEntity(entityValue))
}

type pagedKey struct {
	template string
	pageSize int
	from     int
}

// Engine builds paged queries and memoizes the JSON round trip per
// (template, page size, offset).
type Engine struct {
	cache *lru.Cache[pagedKey, Paged]
}

// NewEngine creates an Engine with a bounded paged-template cache
func NewEngine(cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = DefaultPagedCacheSize
	}
	cache, err := lru.New[pagedKey, Paged](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create template cache: %v", err))
	}
	return &Engine{cache: cache}
}

// WithPaging injects from/size into template unless the template already
// sets them, and re-serializes it. Placeholder substitution happens after
// this round trip.
func (e *Engine) WithPaging(template string, pageSize, from int) (Paged, error) {
	key := pagedKey{template: template, pageSize: pageSize, from: from}
	if e != nil && e.cache != nil {
		if p, ok := e.cache.Get(key); ok {
			return p, nil
		}
	}

	p, err := WithPaging(template, pageSize, from)
	if err != nil {
		return Paged{}, err
	}

	if e != nil && e.cache != nil {
		e.cache.Add(key, p)
	}
	return p, nil
}

// WithPaging is the uncached form of Engine.WithPaging
func WithPaging(template string, pageSize, from int) (Paged, error) {
	var q map[string]any
	dec := json.NewDecoder(strings.NewReader(template))
	dec.UseNumber()
	if err := dec.Decode(&q); err != nil {
		return Paged{}, types.NewConfigurationError("Search query template is not valid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Paged{}, types.NewConfigurationError("Search query template has trailing content after the JSON object", err)
	}
	if q == nil {
		return Paged{}, types.NewConfigurationError("Search query template must be a JSON object", nil)
	}

	if v, ok := q["from"]; !isSet(v, ok) {
		q["from"] = from
	}
	if v, ok := q["size"]; !isSet(v, ok) {
		q["size"] = pageSize
	}

	out, err := json.Marshal(q)
	if err != nil {
		return Paged{}, types.NewConfigurationError("Search query template could not be serialized", err)
	}

	return Paged{
		Query: string(out),
		From:  asInt(q["from"], from),
		Size:  asInt(q["size"], pageSize),
	}, nil
}

// EscapeEntity strips line breaks and escapes backslashes and double quotes
// so the value can be embedded in a JSON string literal.
func EscapeEntity(value string) string {
	value = strings.NewReplacer("\r\n", "", "\n", "", "\r", "").Replace(value)
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, `"`, `\"`)
}

// isSet reports whether the template carries an explicit, non-null value
func isSet(v any, present bool) bool {
	return present && v != nil
}

func asInt(v any, fallback int) int {
	switch val := v.(type) {
	case int:
		return val
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return fallback
		}
		return int(n)
	default:
		return fallback
	}
}
