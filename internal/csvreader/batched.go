package csvreader

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
)

// BatchedReader decodes a csv file a group of batches at a time.
type BatchedReader interface {
	// Mode reports how the reader pulls bytes from the file.
	Mode() Mode
	// NextBatches decodes up to n batches of ChunkSize rows in parallel.
	// It returns nil, nil once the input (or the row limit) is exhausted.
	// Ownership of the returned records passes to the caller.
	NextBatches(ctx context.Context, n int) ([]arrow.Record, error)
	// Close releases the decoder state and the borrow on the Reader.
	Close() error
}

// segmentSource yields the raw bytes of consecutive data rows.
type segmentSource interface {
	// readSegment reads up to rows data rows. Fewer rows means the input is exhausted.
	readSegment(rows int64) ([]byte, int64, error)
}

// batcher holds the state shared by both batched readers.
type batcher struct {
	reader    *Reader
	src       segmentSource
	spec      *decodeSpec
	pool      *pool.Pool
	chunkSize int64
	limited   bool
	remaining int64
	rowsRead  int64
	finished  bool
	closed    bool
	err       error
}

func newBatcher(r *Reader, src segmentSource) batcher {
	b := batcher{
		reader:    r,
		src:       src,
		spec:      r.spec,
		pool:      r.opts.Pool,
		chunkSize: int64(r.opts.ChunkSize),
	}
	if r.opts.RowLimit != nil {
		b.limited = true
		b.remaining = *r.opts.RowLimit
	}
	return b
}

// skipPreamble consumes SkipRows records, the header and SkipRowsAfterHeader records,
// in that order. Each happens exactly once, before the first batch.
func (b *batcher) skipPreamble(ctx context.Context) error {
	opts := b.reader.opts

	if opts.SkipRows > 0 {
		if _, _, err := b.src.readSegment(int64(opts.SkipRows)); err != nil {
			return csverrint.NewIOError(ctx, csverrint.ErrReadInput, err)
		}
	}

	if opts.HasHeader {
		header, n, err := b.src.readSegment(1)
		if err != nil {
			return csverrint.NewIOError(ctx, csverrint.ErrReadInput, err)
		}
		if n == 0 {
			// empty file, nothing to decode
			b.finished = true
			return nil
		}
		if err := b.reader.checkHeader(header); err != nil {
			return csverrint.NewIOError(ctx, csverrint.ErrSchemaMismatch, err)
		}
	}

	if opts.SkipRowsAfterHeader > 0 {
		if _, _, err := b.src.readSegment(int64(opts.SkipRowsAfterHeader)); err != nil {
			return csverrint.NewIOError(ctx, csverrint.ErrReadInput, err)
		}
	}

	return nil
}

func (b *batcher) nextBatches(ctx context.Context, n int) ([]arrow.Record, error) {
	ctx = b.reader.context(ctx)

	if b.closed {
		return nil, csverrint.NewIOError(ctx, csverrint.ErrReaderClosed, nil)
	}
	if b.err != nil {
		return nil, b.err
	}
	if b.finished {
		return nil, nil
	}
	if n < 1 {
		n = 1
	}

	segs := make([]segment, 0, n)
	for len(segs) < n && !b.finished {
		rows := b.chunkSize
		if b.limited {
			if b.remaining == 0 {
				b.finished = true
				break
			}
			if b.remaining < rows {
				rows = b.remaining
			}
		}

		data, count, err := b.src.readSegment(rows)
		if err != nil {
			b.err = csverrint.NewIOError(ctx, csverrint.ErrReadInput, err)
			return nil, b.err
		}
		if count > 0 {
			segs = append(segs, segment{Delimiter: NewDelimiter(b.rowsRead, count), data: data})
			b.rowsRead += count
			if b.limited {
				b.remaining -= count
			}
		}
		if count < rows {
			b.finished = true
		}
	}

	if len(segs) == 0 {
		return nil, nil
	}

	recs, err := b.spec.decodeAll(ctx, b.pool, segs)
	if err != nil {
		b.err = err
		return nil, err
	}
	return recs, nil
}

// close marks the batcher closed and returns the borrow. It reports whether this
// call did the closing.
func (b *batcher) close() bool {
	if b.closed {
		return false
	}
	b.closed = true
	b.reader.release()
	return true
}
