// Package cache stores lookup results so repeated lookups of the same entity
// with the same options skip the search backend.
//
// Results flagged volatile (any search-limit condition) are never stored:
// Set returns ErrVolatile for them. Misses (nil Data) are cacheable.
//
// Two backends live here:
//   - Memory: an expiring LRU (hashicorp/golang-lru/v2/expirable)
//   - Redis: shared cache across processes (redis/go-redis/v9)
//
// The SQLite-backed persistent cache lives in internal/storage and satisfies
// the same interface.
//
// Keys come from Key, a SHA-256 over the backend location, the query
// template, paging, field specs and the entity value.
package cache
