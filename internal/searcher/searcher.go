package searcher

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/eslookup-mcp/internal/batch"
	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/fields"
	"github.com/dshills/eslookup-mcp/internal/limiter"
	"github.com/dshills/eslookup-mcp/internal/query"
	"github.com/dshills/eslookup-mcp/internal/transport"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

// Searcher runs entity lookups against the search backend
type Searcher struct {
	transport transport.Transport
	logger    *zap.Logger
	compiler  *fields.Compiler
	engine    *query.Engine
	cache     cache.Cache

	limiter     atomic.Pointer[limiter.Limiter]
	limiterOnce sync.Once
}

// Option configures a Searcher
type Option func(*Searcher)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLimiter sets the shared dispatch limiter
func WithLimiter(l *limiter.Limiter) Option {
	return func(s *Searcher) {
		if l != nil {
			s.limiter.Store(l)
		}
	}
}

// WithCache enables result caching
func WithCache(c cache.Cache) Option {
	return func(s *Searcher) {
		s.cache = c
	}
}

// WithCompiler sets the field compiler, mainly so tests can observe recompiles
func WithCompiler(c *fields.Compiler) Option {
	return func(s *Searcher) {
		if c != nil {
			s.compiler = c
		}
	}
}

// WithEngine sets the query template engine
func WithEngine(e *query.Engine) Option {
	return func(s *Searcher) {
		if e != nil {
			s.engine = e
		}
	}
}

// New creates a Searcher that sends requests through t
func New(t transport.Transport, opts ...Option) *Searcher {
	s := &Searcher{
		transport: t,
		logger:    zap.NewNop(),
		compiler:  fields.NewCompiler(),
		engine:    query.NewEngine(query.DefaultPagedCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports dispatcher state
type Status struct {
	Limiter      limiter.Stats
	LimiterReady bool
	CacheEnabled bool
}

// Status returns the current dispatcher state
func (s *Searcher) Status() Status {
	st := Status{CacheEnabled: s.cache != nil}
	if l := s.limiter.Load(); l != nil {
		st.Limiter = l.Stats()
		st.LimiterReady = true
	}
	return st
}

// limiterFor returns the shared limiter, building it from the first call's
// options when none was provided. Later option changes do not rebuild it.
func (s *Searcher) limiterFor(opts Options) *limiter.Limiter {
	if l := s.limiter.Load(); l != nil {
		return l
	}
	s.limiterOnce.Do(func() {
		s.limiter.CompareAndSwap(nil, limiter.New(opts.limiterConfig()))
	})
	return s.limiter.Load()
}

// Search looks up entities and returns one result per entity that survives
// private-IP filtering. Groups run concurrently through the limiter.
// Search-limit conditions produce volatile results. Hard group failures are
// returned together as a *types.BatchError once every group has finished.
func (s *Searcher) Search(ctx context.Context, entities []types.Entity, opts Options) ([]types.LookupResult, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rules, err := s.compileRules(opts)
	if err != nil {
		return nil, err
	}

	// Reject a broken template before any request goes out
	if _, err := s.engine.WithPaging(opts.Query, opts.DefaultPageSize, opts.From); err != nil {
		return nil, err
	}

	filtered := batch.Filter(entities, opts.SearchPrivateIPs)
	if len(filtered) == 0 {
		return []types.LookupResult{}, nil
	}

	log := s.logger.With(zap.String("lookup_id", uuid.NewString()))
	agg := newAggregator(len(filtered))

	pending := s.fromCache(ctx, filtered, opts, agg, log)
	groups := batch.Partition(pending, batch.MaxEntitiesPerGroup)
	lim := s.limiterFor(opts)

	log.Debug("starting lookup",
		zap.Int("entities", len(entities)),
		zap.Int("filtered", len(filtered)),
		zap.Int("cached", len(filtered)-len(pending)),
		zap.Int("groups", len(groups)))

	var g errgroup.Group
	for _, group := range groups {
		g.Go(func() error {
			var results []types.LookupResult
			err := lim.Submit(ctx, func(ctx context.Context) error {
				var lookupErr error
				results, lookupErr = s.lookupGroup(ctx, group, rules, opts, log)
				return lookupErr
			})

			if state, limited := limitState(err, results); limited {
				log.Debug("group search limit reached",
					zap.Int("entities", len(group)),
					zap.Error(state.Err()))
				agg.addLimited(group, state)
				return nil
			}
			if err != nil {
				agg.addError(group, types.AsSearchError(err))
				return nil
			}

			s.store(ctx, results, opts, log)
			agg.addResults(results)
			return nil
		})
	}

	<-agg.Done()
	_ = g.Wait()

	return agg.outcome(len(entities), log)
}

type fieldRules struct {
	detail  []types.FieldRule
	summary []types.FieldRule
}

func (s *Searcher) compileRules(opts Options) (fieldRules, error) {
	detail, summary, err := s.compiler.Both(opts.DetailFields, opts.SummaryFields)
	if err != nil {
		return fieldRules{}, err
	}
	return fieldRules{detail: detail, summary: summary}, nil
}

// lookupGroup issues one multi-search request for group and maps the reply
func (s *Searcher) lookupGroup(ctx context.Context, group []types.Entity, rules fieldRules, opts Options, log *zap.Logger) ([]types.LookupResult, error) {
	ms, err := s.engine.BuildMultiSearch(opts.Query, opts.DefaultPageSize, opts.From, group)
	if err != nil {
		return nil, err
	}

	req := &transport.Request{
		URI:     opts.searchURI(),
		Method:  http.MethodGet,
		Headers: transport.WithContentType(opts.Headers, transport.ContentTypeNDJSON),
		Body:    []byte(ms.Body),
	}

	log.Debug("lookup group request payload",
		zap.String("uri", req.URI),
		zap.Int("entities", len(group)),
		zap.String("body", ms.Body))

	resp, err := s.transport.Send(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}

	return mapResponse(resp, group, ms, rules, opts.MaxSummaryTags)
}

// fromCache adds cached results to agg and returns the entities still to look up
func (s *Searcher) fromCache(ctx context.Context, entities []types.Entity, opts Options, agg *aggregator, log *zap.Logger) []types.Entity {
	if s.cache == nil {
		return entities
	}

	params := opts.cacheKeyParams()
	pending := make([]types.Entity, 0, len(entities))
	var hits []types.LookupResult
	for _, entity := range entities {
		result, ok, err := s.cache.Get(ctx, cache.Key(params, entity.Value))
		if err != nil {
			log.Warn("cache read failed", zap.String("entity", entity.Value), zap.Error(err))
		}
		if !ok || err != nil {
			pending = append(pending, entity)
			continue
		}
		result.Entity = entity
		hits = append(hits, *result)
	}

	if len(hits) > 0 {
		agg.addResults(hits)
	}
	return pending
}

// store caches the non-volatile results of a successful group
func (s *Searcher) store(ctx context.Context, results []types.LookupResult, opts Options, log *zap.Logger) {
	if s.cache == nil {
		return
	}

	params := opts.cacheKeyParams()
	for _, result := range results {
		if result.IsVolatile {
			continue
		}
		if err := s.cache.Set(ctx, cache.Key(params, result.Entity.Value), result); err != nil {
			log.Warn("cache write failed", zap.String("entity", result.Entity.Value), zap.Error(err))
		}
	}
}
