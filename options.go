package csvsource

import (
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/databricks/databricks-csvsource-go/internal/chunkindex"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
)

type SourceOption func(*CsvSource)

// WithIndexAllocator sets the allocator chunk indices are drawn from.
// Default is the process wide allocator.
func WithIndexAllocator(a IndexAllocator) SourceOption {
	return func(s *CsvSource) {
		if a != nil {
			s.indices = a
		}
	}
}

// WithThreads sets the number of batches decoded in parallel per call.
// Non-positive values use GOMAXPROCS.
func WithThreads(n int) SourceOption {
	return func(s *CsvSource) {
		s.pool = pool.New(n)
	}
}

// WithAllocator sets the arrow allocator batches are built with.
func WithAllocator(mem memory.Allocator) SourceOption {
	return func(s *CsvSource) {
		s.mem = mem
	}
}

// WithChunkSize fixes the rows per batch instead of deriving it from the
// column and thread counts. Non-positive values restore the default.
func WithChunkSize(rows int) SourceOption {
	return func(s *CsvSource) {
		s.chunkSizeOverride = rows
	}
}

// WithSettings applies the per source parts of st: thread count and chunk size.
// A chunk size given with WithChunkSize before WithSettings takes precedence.
func WithSettings(st *Settings) SourceOption {
	return func(s *CsvSource) {
		if st == nil {
			return
		}
		if st.MaxThreads.IsSet() {
			n, _ := st.MaxThreads.Get()
			s.pool = pool.New(n)
		}

		var explicit config.ConfigValue[int]
		if s.chunkSizeOverride > 0 {
			explicit = config.NewConfigValue(s.chunkSizeOverride)
		}
		s.chunkSizeOverride = explicit.Resolve(st.ChunkSize, 0)
	}
}

func defaultSource() *CsvSource {
	return &CsvSource{
		indices: chunkindex.Global(),
		pool:    pool.Global(),
	}
}
