package csvreader

import (
	"unicode/utf8"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
	"github.com/pkg/errors"
)

const defaultBufferSize = 1 << 20

// Options configure a Reader and the batched readers it hands out.
type Options struct {
	// Schema of every column in the file, in file order.
	Schema *arrow.Schema
	// Projection names the columns to keep, nil keeps all of them.
	Projection []string
	// RowIndex prepends a uint64 column numbering rows from RowIndex.Offset.
	RowIndex *config.RowIndex
	// RowLimit caps the rows decoded, nil is unlimited.
	RowLimit *int64
	// ChunkSize is the number of rows per batch.
	ChunkSize int

	HasHeader           bool
	Separator           rune
	Comment             rune
	NullValues          []string
	SkipRows            int
	SkipRowsAfterHeader int

	// BufferSize of the buffered reader, defaults to 1MiB.
	BufferSize int
	// Pool decodes segments in parallel, defaults to pool.Global().
	Pool *pool.Pool
	// Allocator for decoded batches, defaults to memory.DefaultAllocator.
	Allocator memory.Allocator
}

func (o Options) withDefaults() Options {
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.Pool == nil {
		o.Pool = pool.Global()
	}
	if o.Allocator == nil {
		o.Allocator = memory.DefaultAllocator
	}
	return o
}

func (o Options) validate() error {
	if o.Schema == nil || len(o.Schema.Fields()) == 0 {
		return errors.New("schema has no columns")
	}
	if o.ChunkSize <= 0 {
		return errors.Errorf("chunk size %d must be positive", o.ChunkSize)
	}
	if o.RowLimit != nil && *o.RowLimit < 0 {
		return errors.Errorf("row limit %d must not be negative", *o.RowLimit)
	}
	if o.SkipRows < 0 || o.SkipRowsAfterHeader < 0 {
		return errors.New("skip rows must not be negative")
	}
	if !utf8.ValidRune(o.Separator) || o.Separator == '"' || o.Separator == '\n' || o.Separator == '\r' {
		return errors.Errorf("invalid separator %q", o.Separator)
	}
	if o.Comment >= utf8.RuneSelf || o.Comment == o.Separator || o.Comment == '"' || o.Comment == '\n' || o.Comment == '\r' {
		return errors.Errorf("invalid comment prefix %q", o.Comment)
	}
	return nil
}
