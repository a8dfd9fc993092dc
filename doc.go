/*
Package csvsource implements a streaming csv source operator for a columnar
query pipeline.

# Usage

A source is created from a SourceConfig. Nothing touches the file system until
the first call to GetBatches:

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	cfg := csvsource.NewSourceConfig("trips.csv", schema)
	cfg.ScanOptions.WithColumns = []string{"name"}

	src := csvsource.New(cfg, csvsource.WithThreads(8))
	defer src.Close()

	for {
		res, err := src.GetBatches(ctx)
		if err != nil {
			log.Fatal(err)
		}
		if res.Kind == csvsource.Finished {
			break
		}
		for _, chunk := range res.Chunks {
			process(chunk.ChunkIndex, chunk.Data)
			chunk.Release()
		}
	}

Each call to GetBatches decodes up to one batch per worker thread in parallel
and returns them as DataChunks. Every chunk carries an index drawn from an
IndexAllocator shared by all sources in the process, so downstream operators
can restore the order of batches produced by concurrently running sources.

# Decode modes

By default the file is memory mapped and batches are decoded straight from the
mapping. Setting ReadOptions.LowMemory switches to buffered reads that hold only
the rows currently being decoded. DecodeMode reports the mode chosen once the
source has been initialized.

Compressed inputs (gzip, zstd, lz4) are recognized by their leading bytes.

# Row limits

ScanOptions.RowLimit overrides ReadOptions.RowLimit. A process wide cap set with
SetScanRowLimit further restricts every source initialized while it is set; the
smaller of the two wins.

# Batch size

The number of rows per batch shrinks as the number of decoded columns and worker
threads grow, with a floor of 256 rows. WithChunkSize or the
CSVSOURCE_STREAMING_CHUNK_SIZE setting override it.

# Errors

Every failure is reported as an error for which errors.Is(err, errors.IOError)
holds, see the errors package. A failure while initializing is permanent: the
same error is returned by every later call to GetBatches.

# Logging

Logs are written with zerolog through the logger package. Set the level with
logger.SetLogLevel or the CSVSOURCE_LOG_LEVEL setting. Verbose sources always
log the batch size they picked.
*/
package csvsource
