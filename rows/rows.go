// Package rows adapts a source to record at a time iteration and to Arrow IPC
// streams.
package rows

import (
	"github.com/apache/arrow/go/v12/arrow"
)

type ArrowBatchIterator interface {
	// Retrieve the next arrow.Record. The caller must release it.
	// Will return io.EOF if there are no more records
	Next() (arrow.Record, error)

	// Return true if the iterator contains more batches, false otherwise.
	// May read from the source.
	HasNext() bool

	// Release any resources in use by the iterator. The source is not closed.
	Close()
}
