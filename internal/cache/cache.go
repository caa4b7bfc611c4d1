package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// Backend names accepted in configuration
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

const (
	// DefaultSize is the default number of entries in the memory cache
	DefaultSize = 1000

	// DefaultTTL is the default lifetime of a cached lookup result
	DefaultTTL = time.Hour
)

// ErrVolatile is returned when storing a result that must not be cached
var ErrVolatile = errors.New("volatile lookup results are not cacheable")

// Cache stores non-volatile lookup results by key
type Cache interface {
	// Get returns the cached result for key. ok is false on a cache miss.
	Get(ctx context.Context, key string) (result *types.LookupResult, ok bool, err error)
	// Set stores result under key. Volatile results are rejected with ErrVolatile.
	Set(ctx context.Context, key string, result types.LookupResult) error
	Close() error
}

// KeyParams are the lookup options that change the shape of a result
type KeyParams struct {
	URL            string
	Index          string
	Query          string
	PageSize       int
	From           int
	DetailFields   string
	SummaryFields  string
	MaxSummaryTags int
}

// Key derives the cache key for an entity looked up with params
func Key(params KeyParams, entityValue string) string {
	var b strings.Builder
	b.WriteString(params.URL)
	b.WriteString("|")
	b.WriteString(params.Index)
	b.WriteString("|")
	b.WriteString(params.Query)
	b.WriteString("|")
	b.WriteString(strconv.Itoa(params.PageSize))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(params.From))
	b.WriteString("|")
	b.WriteString(params.DetailFields)
	b.WriteString("|")
	b.WriteString(params.SummaryFields)
	b.WriteString("|")
	b.WriteString(strconv.Itoa(params.MaxSummaryTags))
	b.WriteString("|")
	b.WriteString(entityValue)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Encode serializes a result for storage
func Encode(result types.LookupResult) ([]byte, error) {
	if result.IsVolatile || result.LimitState() != nil {
		return nil, ErrVolatile
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode lookup result: %w", err)
	}
	return data, nil
}

// Decode restores a stored result. Numbers decode as json.Number so detail
// values keep their original representation.
func Decode(data []byte) (*types.LookupResult, error) {
	var result types.LookupResult
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode lookup result: %w", err)
	}
	return &result, nil
}
