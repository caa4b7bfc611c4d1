package searcher

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// limitCounts tracks search-limit conditions across a batch for logging
type limitCounts struct {
	connectionResets int // includes gateway timeouts
	throttled        int
	protoErrors      int
}

func (c limitCounts) any() bool {
	return c.connectionResets > 0 || c.throttled > 0 || c.protoErrors > 0
}

// aggregator collects group outcomes and signals Done once every entity is
// accounted for as a result or as part of a failed group.
type aggregator struct {
	mu         sync.Mutex
	total      int
	results    []types.LookupResult
	errs       []*types.SearchError
	errorCount int
	limits     limitCounts

	done     chan struct{}
	doneOnce sync.Once
}

func newAggregator(total int) *aggregator {
	a := &aggregator{
		total:   total,
		results: make([]types.LookupResult, 0, total),
		done:    make(chan struct{}),
	}
	if total <= 0 {
		a.finish()
	}
	return a
}

// Done is closed when successes plus errored entities cover the batch
func (a *aggregator) Done() <-chan struct{} {
	return a.done
}

func (a *aggregator) addResults(results []types.LookupResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.results = append(a.results, results...)
	a.checkLocked()
}

// addLimited records one volatile limit result per entity in group
func (a *aggregator) addLimited(group []types.Entity, state types.SearchLimitState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if state.IsProtoError {
		a.limits.protoErrors++
	}
	if state.IsConnectionReset || state.IsGatewayTimeout {
		a.limits.connectionResets++
	}
	if state.MaxRequestQueueLimitHit {
		a.limits.throttled++
	}

	for _, entity := range group {
		a.results = append(a.results, types.NewLimitResult(entity, state))
	}
	a.checkLocked()
}

// addError records a hard failure attributed to every entity in group
func (a *aggregator) addError(group []types.Entity, err *types.SearchError) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errs = append(a.errs, err)
	a.errorCount += len(group)
	a.checkLocked()
}

func (a *aggregator) checkLocked() {
	if len(a.results)+a.errorCount >= a.total {
		a.finish()
	}
}

func (a *aggregator) finish() {
	a.doneOnce.Do(func() { close(a.done) })
}

// outcome logs the batch summary and returns the results or a BatchError
func (a *aggregator) outcome(numEntities int, log *zap.Logger) ([]types.LookupResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.limits.any() {
		log.Warn("lookup limit reached",
			zap.Int("num_entities_looked_up", numEntities),
			zap.Int("num_connection_resets", a.limits.connectionResets),
			zap.Int("num_lookups_throttled", a.limits.throttled),
			zap.Int("num_proto_errors", a.limits.protoErrors))
	}

	if len(a.errs) > 0 {
		detail := "Error running search"
		if a.errs[0].Detail != "" {
			detail = a.errs[0].Detail
		}
		errs := make([]*types.SearchError, len(a.errs))
		copy(errs, a.errs)

		log.Error("lookup errors",
			zap.Int("num_errors", len(errs)),
			zap.Int("num_entities_errored", a.errorCount),
			zap.Errors("errors", searchErrors(errs)))
		return nil, &types.BatchError{Detail: detail, Errors: errs}
	}

	results := make([]types.LookupResult, len(a.results))
	copy(results, a.results)
	return results, nil
}

func searchErrors(errs []*types.SearchError) []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = err
	}
	return out
}
