// Package paging computes pagination state for a page of lookup results.
//
// Compute is a pure function of (from, size, totalResults). It returns the
// first and last item numbers shown, the offsets for next, previous, first and
// last pages, and whether navigation in either direction should be disabled.
//
//	state, err := paging.Compute(0, 10, 25)
//	// state.EndItem == 10, state.NextPageIndex == 10, state.DisablePrevButtons == true
//
// A non-positive size is rejected with types.ErrInvalidPageSize.
package paging
