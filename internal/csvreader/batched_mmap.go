package csvreader

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
)

// BatchedMmap decodes from a read only mapping of the file. Segments handed to
// the decoder are sub-slices of the mapping; decoded records copy their values
// out, so no record refers to the mapping once it is returned.
type BatchedMmap struct {
	batcher
	data  []byte
	pos   int
	unmap func() error
}

var _ BatchedReader = (*BatchedMmap)(nil)

// BatchedMmap maps the file and positions the batched reader at the first data row.
// Compressed files are inflated into memory instead of mapped.
func (r *Reader) BatchedMmap(ctx context.Context) (*BatchedMmap, error) {
	ctx = r.context(ctx)
	if err := r.borrow(ctx); err != nil {
		return nil, err
	}

	data, unmap, err := mapFile(r.file)
	if err != nil {
		r.release()
		return nil, csverrint.NewIOError(ctx, csverrint.ErrMapFile, err)
	}

	head := data
	if len(head) > magicLen {
		head = head[:magicLen]
	}
	if c := detectCompression(head); c != compressionNone {
		inflated, err := decompressAll(c, data)
		uerr := unmap()
		if err == nil {
			err = uerr
		}
		if err != nil {
			r.release()
			return nil, csverrint.NewIOError(ctx, csverrint.ErrDecompress, csverrint.WrapErrf(err, "%s input", c))
		}
		data, unmap = inflated, nopClose
	}

	b := &BatchedMmap{data: data, unmap: unmap}
	b.batcher = newBatcher(r, b)

	if err := b.skipPreamble(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *BatchedMmap) Mode() Mode {
	return ModeMemoryMapped
}

func (b *BatchedMmap) NextBatches(ctx context.Context, n int) ([]arrow.Record, error) {
	return b.nextBatches(ctx, n)
}

func (b *BatchedMmap) readSegment(rows int64) ([]byte, int64, error) {
	end, n := b.reader.scanner.scan(b.data[b.pos:], rows)
	seg := b.data[b.pos : b.pos+end]
	b.pos += end
	return seg, n, nil
}

// Close unmaps the file and returns the borrow on the Reader.
func (b *BatchedMmap) Close() error {
	if !b.close() {
		return nil
	}
	b.data = nil
	return b.unmap()
}
