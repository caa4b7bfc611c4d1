package paging

import (
	"fmt"

	"github.com/dshills/eslookup-mcp/pkg/types"
)

// Compute derives the pagination state for a page starting at from with the
// given page size over totalResults hits. Negative offsets are treated as 0.
func Compute(from, size, totalResults int) (types.PageState, error) {
	if size <= 0 {
		return types.PageState{}, fmt.Errorf("compute page state (size=%d): %w", size, types.ErrInvalidPageSize)
	}
	if from < 0 {
		from = 0
	}
	if totalResults < 0 {
		totalResults = 0
	}

	startItem := from + 1
	endItem := from + size
	if from+size+1 > totalResults {
		endItem = totalResults
	}

	finalPagingIndex := FinalPageIndex(size, totalResults)

	nextPageIndex := from + size
	if from+size >= totalResults-1 {
		nextPageIndex = finalPagingIndex
	}

	prevPageIndex := from - size
	if prevPageIndex < 0 {
		prevPageIndex = 0
	}

	lastPageIndex := 0
	if size < totalResults {
		lastPageIndex = finalPagingIndex
	}

	return types.PageState{
		StartItem:          startItem,
		EndItem:            endItem,
		NextPageIndex:      nextPageIndex,
		PrevPageIndex:      prevPageIndex,
		FirstPageIndex:     0,
		LastPageIndex:      lastPageIndex,
		DisableNextButtons: endItem == totalResults,
		DisablePrevButtons: startItem == 1,
		AllResultsReturned: totalResults <= size,
	}, nil
}

// FinalPageIndex returns the offset of the last page. size must be positive.
func FinalPageIndex(size, totalResults int) int {
	if totalResults%size == 0 {
		return totalResults - size
	}
	return totalResults - totalResults%size
}

// ForBlock computes the page state of a detail block
func ForBlock(block types.DetailBlock) (types.PageState, error) {
	return Compute(block.From, block.Size, block.TotalResults)
}
