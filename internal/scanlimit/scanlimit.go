// Package scanlimit holds the process wide cap on rows read by a scan.
//
// Planners set it when only the first n rows of every scan are needed; sources
// combine it with their own row limit when they initialize.
package scanlimit

import "sync/atomic"

var fetchRows atomic.Pointer[int64]

// Set caps every scan initialized afterwards to n rows. Negative values clear the cap.
func Set(n int64) {
	if n < 0 {
		Clear()
		return
	}
	fetchRows.Store(&n)
}

// Clear removes the process wide cap.
func Clear() {
	fetchRows.Store(nil)
}

// Get returns the current cap and whether one is set.
func Get() (int64, bool) {
	p := fetchRows.Load()
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Apply returns the effective row limit for a scan that asked for nRows.
// nil means unlimited.
func Apply(nRows *int64) *int64 {
	limit, ok := Get()
	if !ok {
		return nRows
	}
	if nRows != nil && *nRows < limit {
		return nRows
	}
	return &limit
}
