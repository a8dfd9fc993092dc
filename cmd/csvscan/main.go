// Command csvscan streams a csv file through a source and reports what it read.
//
//	csvscan [-env file] [-o out.arrows] <source.toml>
//
// The toml file describes the csv file and its schema. Process settings are read
// from the environment and the optional env file, see csvsource.LoadSettings.
// With -o the batches are also written as an Arrow IPC stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	csvsource "github.com/databricks/databricks-csvsource-go"
	"github.com/databricks/databricks-csvsource-go/execctx"
	"github.com/databricks/databricks-csvsource-go/logger"
	"github.com/databricks/databricks-csvsource-go/rows"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run does the work of main and returns the exit code, so deferred cleanup
// happens before the process exits.
func run(args []string) int {
	fs := flag.NewFlagSet("csvscan", flag.ContinueOnError)
	envFile := fs.String("env", "", "env file with CSVSOURCE_* settings")
	output := fs.String("o", "", "write batches to this file as an Arrow IPC stream")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: csvscan [-env file] [-o out.arrows] <source.toml>")
		return 2
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	settings, err := csvsource.LoadSettings(envFiles...)
	if err != nil {
		return fail(err, "loading settings")
	}
	if err := csvsource.ApplySettings(settings); err != nil {
		return fail(err, "applying settings")
	}

	cfg, err := csvsource.LoadSourceFile(fs.Arg(0))
	if err != nil {
		return fail(err, "loading source file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	pipelineId := uuid.NewString()
	ctx = execctx.NewContextWithPipelineId(ctx, pipelineId)

	src := csvsource.New(cfg, csvsource.WithSettings(settings))
	defer func() {
		if err := src.Close(); err != nil {
			logger.Err(err).Str("sourceId", src.SourceId()).Msg("csvscan: closing source")
		}
	}()
	logger.Debug().Str("sourceId", src.SourceId()).Str("pipelineId", pipelineId).Msgf("csvscan: scanning %s", cfg.Path)

	start := time.Now()
	var n int64
	if *output != "" {
		n, err = writeStream(ctx, src, *output)
	} else {
		n, err = scan(ctx, src, cfg.Path)
	}
	if err != nil {
		return fail(err, "reading "+cfg.Path)
	}

	logger.Info().Int64("rows", n).Str("mode", src.DecodeMode().String()).Msg("csvscan: done")
	fmt.Printf("%s: %d rows, mode %s, %d rows per batch, %v\n",
		cfg.Path, n, src.DecodeMode(), src.ChunkSize(), time.Since(start).Round(time.Millisecond))
	return 0
}

func fail(err error, msg string) int {
	logger.Err(err).Msg("csvscan: " + msg)
	return 1
}

func scan(ctx context.Context, src *csvsource.CsvSource, path string) (int64, error) {
	bar := progressbar.NewOptions64(
		-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("scanning "+path),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	defer bar.Finish()

	var total int64
	for {
		res, err := src.GetBatches(ctx)
		if err != nil {
			return total, err
		}
		if res.Kind == csvsource.Finished {
			return total, nil
		}

		n := res.NumRows()
		total += n
		_ = bar.Add64(n)
		res.Release()
	}
}

func writeStream(ctx context.Context, src *csvsource.CsvSource, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	it := rows.NewArrowBatchIterator(ctx, src)
	defer it.Close()

	// the first fetch opens the file, after which the schema is known even
	// when there are no rows
	it.HasNext()
	n, err := rows.WriteIPCStream(f, it, src.Schema(), nil)
	if err != nil {
		return n, err
	}
	return n, f.Sync()
}
