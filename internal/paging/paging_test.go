package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

func TestComputeFirstPage(t *testing.T) {
	state, err := Compute(0, 10, 25)
	require.NoError(t, err)

	assert.Equal(t, 1, state.StartItem)
	assert.Equal(t, 10, state.EndItem)
	assert.Equal(t, 10, state.NextPageIndex)
	assert.Equal(t, 0, state.PrevPageIndex)
	assert.Equal(t, 0, state.FirstPageIndex)
	assert.Equal(t, 20, state.LastPageIndex)
	assert.True(t, state.DisablePrevButtons)
	assert.False(t, state.DisableNextButtons)
	assert.False(t, state.AllResultsReturned)
}

func TestComputeLastPage(t *testing.T) {
	state, err := Compute(20, 10, 25)
	require.NoError(t, err)

	assert.Equal(t, 21, state.StartItem)
	assert.Equal(t, 25, state.EndItem)
	assert.Equal(t, 20, state.NextPageIndex)
	assert.Equal(t, FinalPageIndex(10, 25), state.NextPageIndex)
	assert.Equal(t, 10, state.PrevPageIndex)
	assert.True(t, state.DisableNextButtons)
	assert.False(t, state.DisablePrevButtons)
}

func TestComputeExactMultiple(t *testing.T) {
	state, err := Compute(10, 10, 30)
	require.NoError(t, err)

	assert.Equal(t, 20, state.EndItem)
	assert.Equal(t, 20, state.NextPageIndex)
	assert.Equal(t, 20, state.LastPageIndex)
	assert.False(t, state.DisableNextButtons)
}

func TestComputeSinglePage(t *testing.T) {
	state, err := Compute(0, 10, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, state.EndItem)
	assert.Equal(t, 0, state.LastPageIndex)
	assert.True(t, state.AllResultsReturned)
	assert.True(t, state.DisableNextButtons)
	assert.True(t, state.DisablePrevButtons)
}

func TestComputeInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Compute(0, size, 10)
		assert.ErrorIs(t, err, types.ErrInvalidPageSize)
	}
}

func TestComputeInvariants(t *testing.T) {
	for total := 0; total <= 40; total++ {
		for _, size := range []int{1, 3, 10} {
			for from := 0; from < total; from += size {
				state, err := Compute(from, size, total)
				require.NoError(t, err)

				assert.LessOrEqual(t, state.StartItem+(state.EndItem-state.StartItem), total,
					"from=%d size=%d total=%d", from, size, total)
				assert.Equal(t, from == 0, state.DisablePrevButtons,
					"from=%d size=%d total=%d", from, size, total)
				assert.GreaterOrEqual(t, state.PrevPageIndex, 0)
			}
		}
	}
}

func TestForBlock(t *testing.T) {
	state, err := ForBlock(types.DetailBlock{From: 0, Size: 10, TotalResults: 25})
	require.NoError(t, err)
	assert.Equal(t, 10, state.EndItem)
}
