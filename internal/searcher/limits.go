package searcher

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dshills/eslookup-mcp/internal/transport"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// limitState classifies a group outcome as a search-limit condition.
// A dropped job, or a success with no results, means the request queue limit
// was hit; that case wins over every other classification.
func limitState(err error, results []types.LookupResult) (types.SearchLimitState, bool) {
	var state types.SearchLimitState

	if err == nil {
		state.MaxRequestQueueLimitHit = len(results) == 0
		return state, state.Any()
	}

	if errors.Is(err, types.ErrCapacityExceeded) {
		state.MaxRequestQueueLimitHit = true
		return state, true
	}

	state.IsGatewayTimeout = isGatewayStatus(err) || transport.IsTimeout(err)
	state.IsConnectionReset = transport.IsConnectionReset(err)
	state.IsProtoError = transport.IsProtocolError(err)

	return state, state.Any()
}

func isGatewayStatus(err error) bool {
	var se *types.SearchError
	if !errors.As(err, &se) {
		return false
	}
	status, convErr := strconv.Atoi(se.Status)
	if convErr != nil {
		return false
	}
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
