package rows

import (
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/pkg/errors"
)

// WriteIPCStream drains it into w as one Arrow IPC stream and returns the number
// of rows written.
//
// With a schema the stream is started before the first record, so an iterator
// that yields nothing still produces a valid stream with no batches. With a nil
// schema the stream takes the schema of the first record and nothing at all is
// written when there are no records.
func WriteIPCStream(w io.Writer, it ArrowBatchIterator, schema *arrow.Schema, mem memory.Allocator) (int64, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	var writer *ipc.Writer
	if schema != nil {
		writer = ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	}

	var rows int64
	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if writer != nil {
				_ = writer.Close()
			}
			return rows, err
		}

		if writer == nil {
			writer = ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
		}
		err = writer.Write(rec)
		n := rec.NumRows()
		rec.Release()
		if err != nil {
			_ = writer.Close()
			return rows, errors.Wrap(err, "writing ipc stream")
		}
		rows += n
	}

	if writer == nil {
		return 0, nil
	}
	return rows, errors.Wrap(writer.Close(), "closing ipc stream")
}
