package csvsource

import (
	"context"

	"github.com/databricks/databricks-csvsource-go/execctx"
	"github.com/databricks/databricks-csvsource-go/internal/chunksize"
	"github.com/databricks/databricks-csvsource-go/internal/csvreader"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/databricks/databricks-csvsource-go/internal/scanlimit"
	"github.com/databricks/databricks-csvsource-go/logger"
)

// initReader consumes the config, opens the file and builds the batched decoder.
// The reader and decoder are stored only when both were created.
func (s *CsvSource) initReader(ctx context.Context) error {
	s.initialized = true
	cfg := s.config
	s.config = nil

	s.logger_ = logger.WithContext(s.id, execctx.PipelineIdFromContext(ctx))
	defer s.logger_.Duration(s.logger_.Track("csvsource: init"))

	if cfg == nil {
		return csverrint.NewIOError(ctx, csverrint.ErrMissingConfig, nil)
	}
	ctx = execctx.NewContextWithPath(ctx, cfg.Path)

	if err := cfg.Validate(); err != nil {
		s.logger_.Err(err).Msg("csvsource: invalid config")
		return csverrint.NewIOError(ctx, csverrint.ErrInvalidOptions, err)
	}

	nThreads := s.pool.CurrentNumThreads()
	s.chunkSize = chunksize.Resolve(s.chunkSizeOverride, cfg.NumColumns(), nThreads)
	if cfg.Verbose {
		s.logger_.Log().Msgf("STREAMING CHUNK SIZE: %d rows", s.chunkSize)
	}

	opts := csvreader.Options{
		Schema:              cfg.Schema,
		Projection:          cfg.Projection(),
		RowIndex:            cfg.RowIndexColumn(),
		RowLimit:            scanlimit.Apply(cfg.RowLimit()),
		ChunkSize:           s.chunkSize,
		HasHeader:           cfg.ReadOptions.HasHeader,
		Separator:           cfg.ReadOptions.Separator,
		Comment:             cfg.ReadOptions.Comment,
		NullValues:          cfg.ReadOptions.NullValues,
		SkipRows:            cfg.ReadOptions.SkipRows,
		SkipRowsAfterHeader: cfg.ReadOptions.SkipRowsAfterHeader,
		Pool:                s.pool,
		Allocator:           s.mem,
	}

	reader, err := csvreader.Open(ctx, cfg.Path, opts)
	if err != nil {
		s.logger_.Err(err).Msgf("csvsource: opening %s", cfg.Path)
		return err
	}

	mode := csvreader.ModeFor(cfg.ReadOptions.LowMemory)
	batched, err := reader.Batched(ctx, mode)
	if err != nil {
		s.logger_.Err(err).Msgf("csvsource: creating %s decoder for %s", mode, cfg.Path)
		if cerr := reader.Close(); cerr != nil {
			s.logger_.Warn().Err(cerr).Msg("csvsource: closing reader after failed init")
		}
		return err
	}

	s.reader, s.batched, s.schema = reader, batched, reader.Schema()
	s.logger_.Debug().Msgf("csvsource: reading %s, mode %s, %d rows per batch, %d threads", cfg.Path, mode, s.chunkSize, nThreads)
	return nil
}
