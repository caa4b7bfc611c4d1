package searcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/eslookup-mcp/internal/cache"
	"github.com/dshills/eslookup-mcp/internal/fields"
	"github.com/dshills/eslookup-mcp/internal/limiter"
	"github.com/dshills/eslookup-mcp/internal/transport"
	"github.com/dshills/eslookup-mcp/pkg/types"
)

const testQuery = `{"query":{"match":{"value":"{{entity}}"}}}`

func testOptions() Options {
	return Options{
		URL:              "http://es.local:9200/",
		Index:            "logs",
		Query:            testQuery,
		HighlightEnabled: true,
		HighlightQuery:   testQuery,
		DefaultPageSize:  10,
		MaxSummaryTags:   5,
		DetailFields:     "User:_source.user,_source.count",
		SummaryFields:    "Name:_source.user",
		Headers:          transport.AuthHeaders("", "", "key", nil),
		MaxConcurrent:    4,
	}
}

// fakeBackend answers _msearch requests from a map of entity -> hits
type fakeBackend struct {
	mu       sync.Mutex
	docs     map[string][]string
	requests []*transport.Request

	// when set, every request gets this reply
	status int
	body   string
	err    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: map[string][]string{}}
}

func (f *fakeBackend) addHit(entity, id, user string, count int) {
	f.docs[entity] = append(f.docs[entity],
		fmt.Sprintf(`{"_id":%q,"_index":"logs","_source":{"user":%q,"count":%d}}`, id, user, count))
}

func (f *fakeBackend) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.body != "" || f.status != 0 {
		return &transport.Response{StatusCode: f.status, Body: []byte(f.body)}, nil
	}

	lines := strings.Split(strings.TrimSpace(string(req.Body)), "\n")
	responses := make([]string, 0, len(lines)/2)
	for i := 1; i < len(lines); i += 2 {
		hits := f.docs[entityFromQuery(lines[i])]
		responses = append(responses, fmt.Sprintf(`{"hits":{"total":{"value":%d},"hits":[%s]}}`,
			len(hits), strings.Join(hits, ",")))
	}
	body := fmt.Sprintf(`{"took":1,"responses":[%s]}`, strings.Join(responses, ","))
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeBackend) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func entityFromQuery(line string) string {
	var q struct {
		Query struct {
			Match struct {
				Value string `json:"value"`
			} `json:"match"`
		} `json:"query"`
	}
	_ = json.Unmarshal([]byte(line), &q)
	return q.Query.Match.Value
}

func entityValues(results []types.LookupResult) []string {
	values := make([]string, 0, len(results))
	for _, r := range results {
		values = append(values, r.Entity.Value)
	}
	return values
}

func TestSearchHitsAndMisses(t *testing.T) {
	backend := newFakeBackend()
	backend.addHit("alice", "a1", "Alice", 1)
	backend.addHit("alice", "a2", "alice ", 2)

	s := New(backend)
	results, err := s.Search(context.Background(), types.NewEntities([]string{"alice", "nobody"}), testOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// single group keeps backend order
	assert.Equal(t, "alice", results[0].Entity.Value)
	assert.Equal(t, "nobody", results[1].Entity.Value)
	assert.True(t, results[1].IsMiss())

	data := results[0].Data
	require.NotNil(t, data)
	assert.Empty(t, data.Summary)
	assert.Equal(t, 2, data.Details.TotalResults)
	assert.Equal(t, 0, data.Details.From)
	assert.Equal(t, 10, data.Details.Size)
	assert.Equal(t, []string{"a1", "a2"}, data.Details.DocumentIDs())
	assert.Equal(t, []string{"Name: Alice"}, data.Details.Tags)
	assert.Len(t, data.Details.Queries, 2)
	assert.Nil(t, data.Details.Limit)
	assert.False(t, results[0].IsVolatile)

	details := data.Details.Results[0].Details
	require.Len(t, details, 2)
	assert.Equal(t, types.DetailValue{Label: "User", Value: "Alice"}, details[0])
	assert.Equal(t, types.DetailValue{Label: "_source.count", Value: json.Number("1")}, details[1])

	require.Equal(t, 1, backend.requestCount())
	req := backend.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "http://es.local:9200/logs/_msearch", req.URI)
	assert.Equal(t, transport.ContentTypeNDJSON, req.Headers[transport.HeaderContentType])
	assert.Equal(t, "ApiKey key", req.Headers[transport.HeaderAuthorization])
	assert.True(t, strings.HasPrefix(string(req.Body), "{}\n"))
}

func TestSearchCoversEveryEntityAcrossGroups(t *testing.T) {
	backend := newFakeBackend()
	values := make([]string, 25)
	for i := range values {
		values[i] = fmt.Sprintf("host-%02d", i)
		if i%3 == 0 {
			backend.addHit(values[i], "d"+values[i], "u", i)
		}
	}

	s := New(backend)
	results, err := s.Search(context.Background(), types.NewEntities(values), testOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, backend.requestCount())
	assert.ElementsMatch(t, values, entityValues(results))
	for _, r := range results {
		var n int
		_, _ = fmt.Sscanf(r.Entity.Value, "host-%d", &n)
		assert.Equal(t, n%3 != 0, r.IsMiss(), r.Entity.Value)
	}
}

func TestSearchPrivateIPFilter(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)
	entities := types.NewEntities([]string{"10.0.0.1", "8.8.8.8", "192.168.1.1"})

	results, err := s.Search(context.Background(), entities, testOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"8.8.8.8"}, entityValues(results))

	opts := testOptions()
	opts.SearchPrivateIPs = true
	results, err = s.Search(context.Background(), entities, opts)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchOnlyPrivateIPsMakesNoRequest(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	results, err := s.Search(context.Background(), types.NewEntities([]string{"127.0.0.1"}), testOptions())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, backend.requestCount())
}

func TestSearchHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		code   string
		want   string
	}{
		{"bad request", 400, `{"error":"bad"}`, types.ErrHTTPStatus, "ES_2", "400"},
		{"forbidden", 403, `{}`, types.ErrHTTPStatus, "ES_1", "403"},
		{"not found", 404, `{}`, types.ErrHTTPStatus, "ES_1", "404"},
		{"conflict", 409, `{}`, types.ErrHTTPStatus, "ES_3", "409"},
		{"unavailable", 503, `{}`, types.ErrHTTPStatus, "ES_4", "503"},
		{"unexpected status", 418, `{}`, types.ErrHTTPStatus, "ES_8", "418"},
		{"body not json", 200, `<html>`, types.ErrResponseParse, "ES_1", "200"},
		{"empty body", 200, ` `, types.ErrResponseParse, "ES_1", "200"},
		{"responses not array", 200, `{"responses":{}}`, types.ErrMalformedEnvelope, "ES_6", "200"},
		{"responses missing", 200, `{"took":1}`, types.ErrMalformedEnvelope, "ES_6", "200"},
		{"response count mismatch", 200, `{"responses":[{"hits":{"hits":[]}},{"hits":{"hits":[]}}]}`, types.ErrMalformedEnvelope, "ES_6", "200"},
		{"query error", 200, `{"responses":[{"error":{"type":"parsing_exception"}}]}`, types.ErrQuerySyntax, "ES_7", "200"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.status = tt.status
			backend.body = tt.body

			s := New(backend)
			results, err := s.Search(context.Background(), types.NewEntities([]string{"x"}), testOptions())
			require.Error(t, err)
			assert.Nil(t, results)

			var batchErr *types.BatchError
			require.ErrorAs(t, err, &batchErr)
			require.Len(t, batchErr.Errors, 1)

			se := batchErr.Errors[0]
			assert.ErrorIs(t, se, tt.kind)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.want, se.Status)
			assert.Equal(t, se.Detail, batchErr.Detail)
			assert.NotEmpty(t, se.Title)
		})
	}
}

func TestSearchBadRequestCode(t *testing.T) {
	backend := newFakeBackend()
	backend.status = 400
	backend.body = `{"error":{"type":"search_phase_execution_exception"}}`

	_, err := New(backend).Search(context.Background(), types.NewEntities([]string{"x"}), testOptions())

	var se *types.SearchError
	require.ErrorAs(t, err, &se)
	assert.True(t, strings.HasSuffix(se.Code, "_2"))
	assert.Equal(t, "400", se.Status)
	assert.Equal(t, "Invalid Search, please check search parameters", se.Detail)
}

func TestSearchGatewayTimeoutStatuses(t *testing.T) {
	for _, status := range []int{500, 502, 504} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			backend := newFakeBackend()
			backend.status = status
			backend.body = `{"error":"upstream"}`

			results, err := New(backend).Search(context.Background(), types.NewEntities([]string{"a", "b"}), testOptions())
			require.NoError(t, err)
			require.Len(t, results, 2)

			for _, r := range results {
				assert.True(t, r.IsVolatile)
				assert.Equal(t, []string{types.SearchLimitSummary}, r.Data.Summary)
				assert.Empty(t, r.Data.Details.Results)
				assert.Equal(t, &types.SearchLimitState{IsGatewayTimeout: true}, r.LimitState())
			}
		})
	}
}

func syscallErr(errno syscall.Errno) error {
	return fmt.Errorf("GET http://es.local: %w", &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: os.NewSyscallError("read", errno),
	})
}

func TestSearchTransportLimitErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.SearchLimitState
		kind error
	}{
		{"connection reset", syscallErr(syscall.ECONNRESET), types.SearchLimitState{IsConnectionReset: true}, types.ErrConnectionReset},
		{"protocol error", syscallErr(syscall.EPROTO), types.SearchLimitState{IsProtoError: true}, types.ErrProtocol},
		{"timeout", fmt.Errorf("request: %w", context.DeadlineExceeded), types.SearchLimitState{IsGatewayTimeout: true}, types.ErrGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.err = tt.err
			core, logs := observer.New(zapcore.DebugLevel)

			results, err := New(backend, WithLogger(zap.New(core))).Search(context.Background(), types.NewEntities([]string{"a"}), testOptions())
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, &tt.want, results[0].LimitState())
			assert.True(t, results[0].IsVolatile)

			entries := logs.FilterMessage("group search limit reached").All()
			require.Len(t, entries, 1)
			var logged error
			for _, f := range entries[0].Context {
				if f.Key == "error" {
					logged, _ = f.Interface.(error)
				}
			}
			assert.ErrorIs(t, logged, tt.kind)
		})
	}
}

func TestSearchTransportHardError(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("no such host")

	_, err := New(backend).Search(context.Background(), types.NewEntities([]string{"a"}), testOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransport)

	var batchErr *types.BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "Error making HTTP request", batchErr.Detail)
}

func TestSearchEmptyResponsesIsLimit(t *testing.T) {
	backend := newFakeBackend()
	backend.status = 200
	backend.body = `{"responses":[]}`

	results, err := New(backend).Search(context.Background(), types.NewEntities([]string{"a", "b"}), testOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, &types.SearchLimitState{MaxRequestQueueLimitHit: true}, r.LimitState())
	}
}

func TestSearchGroupErrorDoesNotAbortSiblings(t *testing.T) {
	var calls sync.Map
	good := newFakeBackend()
	tr := transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		if strings.Contains(string(req.Body), `"bad-00"`) {
			calls.Store("bad", true)
			return &transport.Response{StatusCode: 409, Body: []byte(`{}`)}, nil
		}
		calls.Store("good", true)
		return good.Send(ctx, req)
	})

	values := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		values = append(values, fmt.Sprintf("bad-%02d", i))
	}
	for i := 0; i < 10; i++ {
		values = append(values, fmt.Sprintf("good-%02d", i))
	}

	_, err := New(tr).Search(context.Background(), types.NewEntities(values), testOptions())
	var batchErr *types.BatchError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Errors, 1)
	assert.Equal(t, "ES_3", batchErr.Errors[0].Code)

	_, ranGood := calls.Load("good")
	_, ranBad := calls.Load("bad")
	assert.True(t, ranGood)
	assert.True(t, ranBad)
}

func TestSearchOverflowDropsGroup(t *testing.T) {
	lim := limiter.New(limiter.Config{MaxConcurrent: 1, QueueDepth: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = lim.Submit(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	go func() {
		defer wg.Done()
		_ = lim.Submit(context.Background(), func(ctx context.Context) error { return nil })
	}()
	require.Eventually(t, func() bool { return lim.Stats().Queued == 1 }, time.Second, time.Millisecond)

	backend := newFakeBackend()
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(backend, WithLimiter(lim), WithLogger(zap.New(core)))

	results, err := s.Search(context.Background(), types.NewEntities([]string{"a", "b", "c"}), testOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.IsVolatile)
		assert.Equal(t, &types.SearchLimitState{MaxRequestQueueLimitHit: true}, r.LimitState())
	}
	assert.Equal(t, 0, backend.requestCount())

	entries := logs.FilterMessage("lookup limit reached").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["num_lookups_throttled"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["num_entities_looked_up"])

	close(release)
	wg.Wait()
}

func TestSearchLazyLimiterFromOptions(t *testing.T) {
	s := New(newFakeBackend())
	assert.False(t, s.Status().LimiterReady)

	opts := testOptions()
	opts.MaxConcurrent = 7
	opts.QueueDepth = 42
	_, err := s.Search(context.Background(), types.NewEntities([]string{"a"}), opts)
	require.NoError(t, err)

	st := s.Status()
	require.True(t, st.LimiterReady)
	assert.Equal(t, int64(1), st.Limiter.Completed)

	// later calls reuse the first limiter
	opts.MaxConcurrent = 1
	_, err = s.Search(context.Background(), types.NewEntities([]string{"a"}), opts)
	require.NoError(t, err)
	assert.Equal(t, 7, s.limiter.Load().Config().MaxConcurrent)
	assert.Equal(t, 42, s.limiter.Load().Config().QueueDepth)
}

func TestSearchConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"bad detail field", func(o *Options) { o.DetailFields = "a:b:c" }},
		{"bad summary field", func(o *Options) { o.SummaryFields = "x:y:z" }},
		{"query not json", func(o *Options) { o.Query = `{"query":` }},
		{"missing url", func(o *Options) { o.URL = "" }},
		{"missing index", func(o *Options) { o.Index = "" }},
		{"missing query", func(o *Options) { o.Query = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			opts := testOptions()
			tt.modify(&opts)

			_, err := New(backend).Search(context.Background(), types.NewEntities([]string{"a"}), opts)
			assert.ErrorIs(t, err, types.ErrConfiguration)
			assert.Equal(t, 0, backend.requestCount())
		})
	}
}

func TestSearchCompilesFieldsOnlyOnChange(t *testing.T) {
	var compiles []string
	compiler := fields.NewCompiler()
	compiler.OnCompile = func(set string) { compiles = append(compiles, set) }

	s := New(newFakeBackend(), WithCompiler(compiler))
	opts := testOptions()

	_, err := s.Search(context.Background(), types.NewEntities([]string{"a"}), opts)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), types.NewEntities([]string{"b"}), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{fields.SetDetail, fields.SetSummary}, compiles)

	opts.DetailFields = "_source.user"
	_, err = s.Search(context.Background(), types.NewEntities([]string{"c"}), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{fields.SetDetail, fields.SetSummary, fields.SetDetail}, compiles)
}

func TestSearchUsesCache(t *testing.T) {
	backend := newFakeBackend()
	backend.addHit("alice", "a1", "Alice", 1)
	mem := cache.NewMemory(100, time.Minute)
	s := New(backend, WithCache(mem))

	first, err := s.Search(context.Background(), types.NewEntities([]string{"alice", "nobody"}), testOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requestCount())
	assert.Equal(t, 2, mem.Len())

	second, err := s.Search(context.Background(), types.NewEntities([]string{"nobody", "alice"}), testOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, backend.requestCount())
	assert.ElementsMatch(t, entityValues(first), entityValues(second))

	// a different page is a different key
	opts := testOptions()
	opts.From = 10
	_, err = s.Search(context.Background(), types.NewEntities([]string{"alice"}), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.requestCount())
}

func TestSearchDoesNotCacheLimitResults(t *testing.T) {
	backend := newFakeBackend()
	backend.status = 502
	backend.body = `{}`
	mem := cache.NewMemory(100, time.Minute)
	s := New(backend, WithCache(mem))

	for i := 0; i < 2; i++ {
		results, err := s.Search(context.Background(), types.NewEntities([]string{"a"}), testOptions())
		require.NoError(t, err)
		assert.True(t, results[0].IsVolatile)
	}
	assert.Equal(t, 2, backend.requestCount())
	assert.Equal(t, 0, mem.Len())
}

func TestSearchLogsErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.status = 400
	backend.body = `{}`
	core, logs := observer.New(zapcore.DebugLevel)

	_, err := New(backend, WithLogger(zap.New(core))).Search(context.Background(), types.NewEntities([]string{"a"}), testOptions())
	require.Error(t, err)

	entries := logs.FilterMessage("lookup errors").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["lookup_id"])

	assert.NotEmpty(t, logs.FilterMessage("lookup group request payload").All())
}
