// Package chunksize picks how many rows a streaming source decodes per batch.
//
// Every worker thread holds one batch in flight, so the per-batch row count shrinks
// as the thread count grows and as rows get wider. The result never drops below
// MinChunkSize.
package chunksize

const (
	// MinChunkSize is the floor applied to every computed chunk size.
	MinChunkSize = 256

	// cells held in flight across all worker threads
	inFlightCells = 40_000
)

// Determine returns the number of rows per batch for nCols decoded columns
// and nThreads worker threads. Non-positive arguments are treated as 1.
//
// Above the floor the size is inversely proportional to nCols*nThreads, so
// the cells held by all threads together stay within a fixed budget.
func Determine(nCols, nThreads int) int {
	if nCols < 1 {
		nCols = 1
	}
	if nThreads < 1 {
		nThreads = 1
	}

	size := inFlightCells / nCols / nThreads
	if size < MinChunkSize {
		return MinChunkSize
	}
	return size
}

// Resolve returns override when it is positive and Determine(nCols, nThreads) otherwise.
func Resolve(override, nCols, nThreads int) int {
	if override > 0 {
		return override
	}
	return Determine(nCols, nThreads)
}
