package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("read tcp: %w", syscall.ECONNRESET)
	err := &SearchError{Kind: ErrTransport, Detail: "Error making HTTP request", Err: cause}

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, syscall.ECONNRESET)
	assert.NotErrorIs(t, err, ErrQuerySyntax)
	assert.Contains(t, err.Error(), "Error making HTTP request")
}

func TestSearchErrorMessageIncludesCode(t *testing.T) {
	err := &SearchError{Kind: ErrHTTPStatus, Status: "400", Code: "ES_2", Detail: "Invalid Search"}
	assert.Equal(t, "ES_2: Invalid Search", err.Error())
}

func TestBatchError(t *testing.T) {
	first := &SearchError{Kind: ErrHTTPStatus, Code: "ES_2", Detail: "bad request"}
	second := &SearchError{Kind: ErrQuerySyntax, Code: "ES_7", Detail: "syntax"}
	batch := &BatchError{Detail: first.Detail, Errors: []*SearchError{first, second}}

	assert.ErrorIs(t, batch, ErrHTTPStatus)
	assert.ErrorIs(t, batch, ErrQuerySyntax)
	assert.Contains(t, batch.Error(), "1 more")

	var se *SearchError
	require.True(t, errors.As(batch, &se))
	assert.Equal(t, "ES_2", se.Code)
}

func TestAsSearchError(t *testing.T) {
	plain := errors.New("boom")
	se := AsSearchError(plain)
	assert.ErrorIs(t, se, ErrTransport)
	assert.ErrorIs(t, se, plain)

	existing := NewConfigurationError("bad field", nil)
	assert.Same(t, existing, AsSearchError(fmt.Errorf("wrapped: %w", existing)))
}

func TestRawHitRoundTripKeepsUnknownFields(t *testing.T) {
	raw := `{"_id":"1","_index":"logs","_source":{"ip":"8.8.8.8"},"highlight":{"ip":["<b>8.8.8.8</b>"]}}`

	var hit RawHit
	require.NoError(t, json.Unmarshal([]byte(raw), &hit))
	assert.Equal(t, "1", hit.ID)
	assert.JSONEq(t, `{"ip":"8.8.8.8"}`, string(hit.Source))
	assert.Equal(t, []string{"<b>8.8.8.8</b>"}, hit.Highlight["ip"])

	out, err := json.Marshal(hit)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestNewLimitResultIsVolatile(t *testing.T) {
	r := NewLimitResult(NewEntity("8.8.8.8"), SearchLimitState{IsGatewayTimeout: true})
	assert.True(t, r.IsVolatile)
	assert.False(t, r.IsMiss())
	require.NotNil(t, r.LimitState())
	assert.True(t, r.LimitState().IsGatewayTimeout)
	assert.Empty(t, r.Data.Details.Results)
	assert.Equal(t, []string{SearchLimitSummary}, r.Data.Summary)
}

func TestSearchLimitStateErr(t *testing.T) {
	assert.NoError(t, SearchLimitState{}.Err())

	err := SearchLimitState{IsGatewayTimeout: true, IsConnectionReset: true}.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGatewayTimeout)
	assert.ErrorIs(t, err, ErrConnectionReset)
	assert.NotErrorIs(t, err, ErrProtocol)
	assert.NotErrorIs(t, err, ErrCapacityExceeded)

	assert.ErrorIs(t, SearchLimitState{IsProtoError: true}.Err(), ErrProtocol)
	assert.ErrorIs(t, SearchLimitState{MaxRequestQueueLimitHit: true}.Err(), ErrCapacityExceeded)
}
