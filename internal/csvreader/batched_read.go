package csvreader

import (
	"bufio"
	"context"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
)

// BatchedRead decodes from sequential reads of the file, copying each segment
// into a buffer of its own. Only the segments of one NextBatches call are held
// in memory at a time.
type BatchedRead struct {
	batcher
	br         *bufio.Reader
	closeInput func() error
	eof        bool
}

var _ BatchedReader = (*BatchedRead)(nil)

// BatchedRead positions a buffered batched reader at the first data row.
// Compressed files are inflated while streaming.
func (r *Reader) BatchedRead(ctx context.Context) (*BatchedRead, error) {
	ctx = r.context(ctx)
	if err := r.borrow(ctx); err != nil {
		return nil, err
	}

	head, err := r.head(magicLen)
	if err == nil {
		_, err = r.file.Seek(0, io.SeekStart)
	}
	if err != nil {
		r.release()
		return nil, csverrint.NewIOError(ctx, csverrint.ErrCreateDecoder, err)
	}

	var input io.Reader = r.file
	closeInput := nopClose
	if c := detectCompression(head); c != compressionNone {
		input, closeInput, err = newDecompressor(c, r.file)
		if err != nil {
			r.release()
			return nil, csverrint.NewIOError(ctx, csverrint.ErrDecompress, csverrint.WrapErrf(err, "%s input", c))
		}
	}

	b := &BatchedRead{
		br:         bufio.NewReaderSize(input, r.opts.BufferSize),
		closeInput: closeInput,
	}
	b.batcher = newBatcher(r, b)

	if err := b.skipPreamble(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *BatchedRead) Mode() Mode {
	return ModeBuffered
}

func (b *BatchedRead) NextBatches(ctx context.Context, n int) ([]arrow.Record, error) {
	return b.nextBatches(ctx, n)
}

func (b *BatchedRead) readSegment(rows int64) ([]byte, int64, error) {
	var buf []byte
	var n int64
	for n < rows && !b.eof {
		rec, err := b.readRecord()
		if len(rec) > 0 {
			buf = append(buf, rec...)
			if b.reader.scanner.counts(rec) {
				n++
			}
		}
		if err == io.EOF {
			b.eof = true
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return buf, n, nil
}

// readRecord reads one record, following quoted fields across lines. The bytes
// returned are only valid until the next read.
func (b *BatchedRead) readRecord() ([]byte, error) {
	var rec []byte
	inQuotes, comment := false, false
	scanner := b.reader.scanner

	for {
		line, err := b.br.ReadSlice('\n')
		if len(rec) == 0 && len(line) > 0 {
			comment = scanner.isComment(line)
		}
		rec = append(rec, line...)
		if !comment {
			inQuotes = scanner.toggleQuotes(line, inQuotes)
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err != nil:
			return rec, err
		case !inQuotes:
			return rec, nil
		}
	}
}

// Close releases the decompressor, if any, and returns the borrow on the Reader.
// The file itself stays open until the Reader is closed.
func (b *BatchedRead) Close() error {
	if !b.close() {
		return nil
	}
	b.br = nil
	return b.closeInput()
}
