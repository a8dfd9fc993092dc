// Package csvreader opens csv files and hands out batched readers that decode
// them into arrow records.
//
// A Reader owns the open file. A batched reader (BatchedMmap or BatchedRead)
// borrows the Reader: only one can be live at a time and the Reader refuses to
// close until the batched reader has been closed. Callers close the batched
// reader first, then the Reader.
package csvreader

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/databricks/databricks-csvsource-go/execctx"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/pkg/errors"
)

type Reader struct {
	path     string
	file     *os.File
	opts     Options
	spec     *decodeSpec
	scanner  recordScanner
	borrowed bool
	closed   bool
}

// Open validates opts and opens the file at path. No data is read.
func Open(ctx context.Context, path string, opts Options) (*Reader, error) {
	ctx = execctx.NewContextWithPath(ctx, path)

	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, csverrint.NewIOError(ctx, csverrint.ErrInvalidOptions, err)
	}

	spec, err := newDecodeSpec(opts)
	if err != nil {
		return nil, csverrint.NewIOError(ctx, csverrint.ErrInvalidProjection, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, csverrint.NewIOError(ctx, csverrint.ErrOpenFile, err)
	}

	return &Reader{
		path:    path,
		file:    f,
		opts:    opts,
		spec:    spec,
		scanner: newRecordScanner(opts.Comment),
	}, nil
}

func (r *Reader) Path() string {
	return r.path
}

// Schema of the batches produced by this reader's batched readers.
func (r *Reader) Schema() *arrow.Schema {
	return r.spec.outSchema
}

// Batched hands out the batched reader for mode.
func (r *Reader) Batched(ctx context.Context, mode Mode) (BatchedReader, error) {
	switch mode {
	case ModeMemoryMapped:
		if b, err := r.BatchedMmap(ctx); err == nil {
			return b, nil
		} else {
			return nil, err
		}
	case ModeBuffered:
		if b, err := r.BatchedRead(ctx); err == nil {
			return b, nil
		} else {
			return nil, err
		}
	}
	return nil, csverrint.NewIOError(r.context(ctx), csverrint.ErrCreateDecoder, errors.Errorf("unknown mode %s", mode))
}

// Close closes the file. It fails while a batched reader still borrows the Reader.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	if r.borrowed {
		return csverrint.NewIOError(execctx.NewContextWithPath(context.Background(), r.path), csverrint.ErrReaderBorrowed, nil)
	}

	r.closed = true
	return r.file.Close()
}

func (r *Reader) borrow(ctx context.Context) error {
	if r.closed {
		return csverrint.NewIOError(ctx, csverrint.ErrReaderClosed, nil)
	}
	if r.borrowed {
		return csverrint.NewIOError(ctx, csverrint.ErrReaderBorrowed, nil)
	}
	r.borrowed = true
	return nil
}

func (r *Reader) release() {
	r.borrowed = false
}

func (r *Reader) context(ctx context.Context) context.Context {
	return execctx.NewContextWithPath(ctx, r.path)
}

// head returns up to n leading bytes of the file without moving its offset.
func (r *Reader) head(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.file.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// checkHeader compares the width of the header record with the schema.
func (r *Reader) checkHeader(header []byte) error {
	cr := csv.NewReader(bytes.NewReader(header))
	cr.Comma = r.opts.Separator
	cr.Comment = r.opts.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	names, err := cr.Read()
	if err != nil {
		return csverrint.WrapErr(err, "reading header")
	}
	if want := len(r.opts.Schema.Fields()); len(names) != want {
		return errors.Errorf("header has %d columns, schema has %d", len(names), want)
	}
	return nil
}
