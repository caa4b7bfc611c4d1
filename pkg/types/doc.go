// Package types provides shared type definitions for the eslookup connector.
//
// Entities are the indicators submitted for lookup:
//
//	e := types.NewEntity("8.8.8.8")
//	e.Kind      // types.KindIPv4
//	e.IsPrivate // false
//
// A LookupResult is produced for every entity that survives private-IP
// filtering. Its Data is nil for a miss (no documents matched), which is
// distinct from both an error and a search-limit condition:
//
//	switch {
//	case r.IsMiss():
//	    // nothing matched
//	case r.LimitState() != nil:
//	    // throttled, timed out, reset or protocol error; retry later
//	default:
//	    for _, hit := range r.Data.Details.Results { ... }
//	}
//
// Limit-class results are volatile and must never be cached.
//
// # Errors
//
// Hard failures are returned as *SearchError values. Each one unwraps to a
// kind sentinel so callers can branch with errors.Is:
//
//	if errors.Is(err, types.ErrQuerySyntax) {
//	    // fix the configured query template
//	}
//
// The Code and Status fields are stable and intended for display, e.g. an
// HTTP 400 from the backend is reported as Status "400", Code "ES_2".
package types
