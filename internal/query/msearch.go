package query

import (
	"strings"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// MultiSearch is a bulk search request body for one entity group
type MultiSearch struct {
	// Body is the ndjson payload: one "{}\n<query>\n" pair per entity
	Body string
	// Queries are the rendered per-entity queries in group order
	Queries []string
	From    int
	Size    int
}

// BuildMultiSearch renders template for every entity in group order
func (e *Engine) BuildMultiSearch(template string, pageSize, from int, entities []types.Entity) (*MultiSearch, error) {
	paged, err := e.WithPaging(template, pageSize, from)
	if err != nil {
		return nil, err
	}

	var body strings.Builder
	queries := make([]string, 0, len(entities))
	for _, entity := range entities {
		q := paged.Render(entity.Value)
		body.WriteString("{}\n")
		body.WriteString(q)
		body.WriteString("\n")
		queries = append(queries, q)
	}

	return &MultiSearch{
		Body:    body.String(),
		Queries: queries,
		From:    paged.From,
		Size:    paged.Size,
	}, nil
}
