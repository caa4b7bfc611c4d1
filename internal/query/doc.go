// Package query builds the request bodies sent to the search backend.
//
// Query templates are JSON documents containing the literal placeholder
// {{entity}}. Paging is injected before substitution:
//
//	e := query.NewEngine(0)
//	paged, err := e.WithPaging(`{"query":{"term":{"ip":"{{entity}}"}}}`, 10, 20)
//	// paged.Query == `{"from":20,"query":{"term":{"ip":"{{entity}}"}},"size":10}`
//	q := paged.Render("8.8.8.8")
//
// Templates that already carry "from" or "size" keep their explicit values.
// Entity values are escaped for embedding inside JSON strings: line breaks
// are stripped, then backslashes and double quotes are escaped.
//
// # Multi-search
//
// BuildMultiSearch produces the ndjson body for the backend's bulk endpoint,
// one empty header line and one query line per entity, in group order. The
// backend answers with one response per query in the same order.
//
// # Highlights
//
// BuildHighlightQuery produces an ids-filtered query that disables _source and
// asks for HTML-encoded fragments (fragment size 200) on all fields, using the
// template's query clause as the highlight query.
package query
