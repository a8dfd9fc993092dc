package rows

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	csvsource "github.com/databricks/databricks-csvsource-go"
)

// NewArrowBatchIterator returns an iterator over the batches of src in the
// order src produces them.
func NewArrowBatchIterator(ctx context.Context, src csvsource.Source) ArrowBatchIterator {
	return &sourceIterator{ctx: ctx, src: src}
}

type sourceIterator struct {
	ctx        context.Context
	src        csvsource.Source
	pending    []csvsource.DataChunk
	err        error
	isFinished bool
}

var _ ArrowBatchIterator = (*sourceIterator)(nil)

func (si *sourceIterator) Next() (arrow.Record, error) {
	if !si.HasNext() {
		if si.err != nil {
			return nil, si.err
		}
		// returning EOF indicates that there are no more records to iterate
		return nil, io.EOF
	}

	rec := si.pending[0].Data
	si.pending = si.pending[1:]
	return rec, nil
}

// HasNext fetches the next group of batches from the source when nothing is pending.
func (si *sourceIterator) HasNext() bool {
	for len(si.pending) == 0 && !si.isFinished {
		res, err := si.src.GetBatches(si.ctx)
		if err != nil {
			si.err = err
			si.isFinished = true
			break
		}
		if res.Kind == csvsource.Finished {
			si.isFinished = true
			break
		}
		si.pending = res.Chunks
	}
	return len(si.pending) > 0
}

func (si *sourceIterator) Close() {
	for _, c := range si.pending {
		c.Release()
	}
	si.pending = nil
	si.isFinished = true
}
