package csvsource

import (
	"context"
	"sync"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/databricks/databricks-csvsource-go/execctx"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	"github.com/databricks/databricks-csvsource-go/internal/csvreader"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
	"github.com/databricks/databricks-csvsource-go/logger"
	"github.com/google/uuid"
)

// CsvSource streams a csv file as arrow batches.
//
// A CsvSource is driven by one goroutine at a time. It may be handed to another
// goroutine between calls.
type CsvSource struct {
	id string

	// consumed by the first GetBatches call
	config *config.SourceConfig

	indices           IndexAllocator
	pool              *pool.Pool
	mem               memory.Allocator
	chunkSizeOverride int

	// set together by initReader
	reader    *csvreader.Reader
	batched   csvreader.BatchedReader
	schema    *arrow.Schema
	chunkSize int

	initialized bool
	initErr     error
	finished    bool
	closed      bool

	closeOnce sync.Once
	closeErr  error

	logger_ *logger.SourceLogger
}

var _ Source = (*CsvSource)(nil)

// New returns a source for cfg. The file is not opened until the first call to
// GetBatches. The source keeps its own copy of cfg, so later changes to cfg have
// no effect, and reads it exactly once.
func New(cfg *SourceConfig, opts ...SourceOption) *CsvSource {
	s := defaultSource()
	s.id = uuid.NewString()
	s.config = cfg.DeepCopy()
	for _, opt := range opts {
		opt(s)
	}
	s.logger_ = logger.WithContext(s.id, "")
	return s
}

func (s *CsvSource) Name() string {
	return "csv"
}

// SourceId uniquely identifies this source in logs and errors.
func (s *CsvSource) SourceId() string {
	return s.id
}

// DecodeMode reports how batches are read, ModeUnknown until initialized.
func (s *CsvSource) DecodeMode() DecodeMode {
	if s.batched == nil {
		return ModeUnknown
	}
	return s.batched.Mode()
}

// Schema of the batches, after projection and row index injection. It is nil
// until the first GetBatches call opens the file and stays set after Close.
func (s *CsvSource) Schema() *arrow.Schema {
	return s.schema
}

// ChunkSize is the rows per batch, zero until initialized.
func (s *CsvSource) ChunkSize() int {
	return s.chunkSize
}

// GetBatches decodes up to one batch per worker thread.
//
// The first call opens the file. If that fails the error is returned by this
// and every later call. Once the input is exhausted every call returns Finished.
func (s *CsvSource) GetBatches(ctx context.Context) (SourceResult, error) {
	ctx = execctx.NewContextWithSourceId(ctx, s.id)

	if s.closed {
		return SourceResult{}, csverrint.NewIOError(ctx, csverrint.ErrSourceClosed, nil)
	}
	if !s.initialized {
		s.initErr = s.initReader(ctx)
	}
	if s.initErr != nil {
		return SourceResult{}, s.initErr
	}
	if s.finished {
		return SourceResult{Kind: Finished}, nil
	}

	recs, err := s.batched.NextBatches(ctx, s.pool.CurrentNumThreads())
	if err != nil {
		s.logger_.Err(err).Msg("csvsource: decoding batches")
		return SourceResult{}, err
	}
	if len(recs) == 0 {
		s.finished = true
		s.logger_.Debug().Msg("csvsource: input exhausted")
		return SourceResult{Kind: Finished}, nil
	}

	start := s.indices.Reserve(uint64(len(recs)))
	chunks := make([]DataChunk, len(recs))
	for i, rec := range recs {
		chunks[i] = DataChunk{ChunkIndex: start + uint64(i), Data: rec}
	}

	s.logger_.Trace().Msgf("csvsource: %d batches from index %d", len(chunks), start)
	return SourceResult{Kind: GotMoreData, Chunks: chunks}, nil
}

// Close closes the batched decoder and then the file. It is safe to call more
// than once and on sources that were never initialized.
func (s *CsvSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.config = nil
		s.closeErr = s.teardown()
	})
	return s.closeErr
}

func (s *CsvSource) teardown() error {
	var err error
	if s.batched != nil {
		err = s.batched.Close()
		s.batched = nil
	}
	if s.reader != nil {
		if rerr := s.reader.Close(); err == nil {
			err = rerr
		}
		s.reader = nil
	}
	if err != nil {
		ctx := execctx.NewContextWithSourceId(context.Background(), s.id)
		return csverrint.NewIOError(ctx, csverrint.ErrCloseSource, err)
	}
	s.logger_.Debug().Msg("csvsource: closed")
	return nil
}
