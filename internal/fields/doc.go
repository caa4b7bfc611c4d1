// Package fields compiles "label:json path" field selectors and extracts the
// selected values from raw hit documents.
//
// A spec string is a comma-delimited list of selectors:
//
//	rules, err := fields.Compile("Name:_source.user,count", true)
//	// [{Label: "Name", Path: "_source.user"}, {Label: "count", Path: "count"}]
//
// Selectors with more than one colon are rejected with a configuration error
// before any request is made.
//
// # Caching
//
// Compiler keeps two independent memos, one for detail fields and one for
// summary fields. A set is recompiled only when its spec string changes:
//
//	c := fields.NewCompiler()
//	detail, _ := c.Detail(cfg.DetailFields)   // compiles
//	detail, _ = c.Detail(cfg.DetailFields)    // cached
//
// # Extraction
//
// Paths use dot notation and may index into arrays:
//
//	v, ok := fields.Extract(hit.Raw(), "_source.tags.0")
package fields
