package csvreader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	csverr "github.com/databricks/databricks-csvsource-go/errors"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modes = []Mode{ModeMemoryMapped, ModeBuffered}

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "c", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
}

func testOptions(chunkSize int) Options {
	return Options{
		Schema:     testSchema(),
		ChunkSize:  chunkSize,
		HasHeader:  true,
		NullValues: []string{""},
		Pool:       pool.New(4),
	}
}

// csvRows renders a header and n rows of i,s<i>,i/2.
func csvRows(n int) string {
	var sb strings.Builder
	sb.WriteString("a,b,c\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d,s%d,%g\n", i, i, float64(i)/2)
	}
	return sb.String()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func openBatched(t *testing.T, path string, opts Options, mode Mode) (*Reader, BatchedReader) {
	t.Helper()
	r, err := Open(context.Background(), path, opts)
	require.NoError(t, err)
	br, err := r.Batched(context.Background(), mode)
	require.NoError(t, err)
	require.Equal(t, mode, br.Mode())
	return r, br
}

func closeBoth(t *testing.T, r *Reader, br BatchedReader) {
	t.Helper()
	assert.NoError(t, br.Close())
	assert.NoError(t, r.Close())
}

// drain reads every batch, n at a time, and returns their row counts.
func drain(t *testing.T, br BatchedReader, n int) []arrow.Record {
	t.Helper()
	var out []arrow.Record
	for {
		recs, err := br.NextBatches(context.Background(), n)
		require.NoError(t, err)
		if recs == nil {
			return out
		}
		require.LessOrEqual(t, len(recs), n)
		out = append(out, recs...)
	}
}

func rowCounts(recs []arrow.Record) []int64 {
	counts := make([]int64, len(recs))
	for i, rec := range recs {
		counts[i] = rec.NumRows()
	}
	return counts
}

func int64Column(recs []arrow.Record, col int) []int64 {
	var out []int64
	for _, rec := range recs {
		out = append(out, rec.Column(col).(*array.Int64).Int64Values()...)
	}
	return out
}

func releaseAll(recs []arrow.Record) {
	for _, rec := range recs {
		rec.Release()
	}
}

func seq(start, n int64) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = start + int64(i)
	}
	return out
}

func TestBatchedReader(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			t.Run("reads every row in order", func(t *testing.T) {
				path := writeFile(t, "rows.csv", []byte(csvRows(10)))
				r, br := openBatched(t, path, testOptions(3), mode)
				defer closeBoth(t, r, br)

				recs := drain(t, br, 2)
				defer releaseAll(recs)

				assert.Equal(t, []int64{3, 3, 3, 1}, rowCounts(recs))
				assert.Equal(t, seq(0, 10), int64Column(recs, 0))
				assert.True(t, recs[0].Schema().Equal(testSchema()))

				b := recs[1].Column(1).(*array.String)
				assert.Equal(t, "s3", b.Value(0))
				c := recs[3].Column(2).(*array.Float64)
				assert.Equal(t, 4.5, c.Value(0))

				// exhausted readers keep returning nothing
				recs2, err := br.NextBatches(context.Background(), 2)
				assert.NoError(t, err)
				assert.Nil(t, recs2)
			})

			t.Run("row limit", func(t *testing.T) {
				path := writeFile(t, "rows.csv", []byte(csvRows(10)))
				opts := testOptions(3)
				limit := int64(5)
				opts.RowLimit = &limit
				r, br := openBatched(t, path, opts, mode)
				defer closeBoth(t, r, br)

				recs := drain(t, br, 4)
				defer releaseAll(recs)
				assert.Equal(t, []int64{3, 2}, rowCounts(recs))
				assert.Equal(t, seq(0, 5), int64Column(recs, 0))
			})

			t.Run("zero row limit", func(t *testing.T) {
				path := writeFile(t, "rows.csv", []byte(csvRows(10)))
				opts := testOptions(3)
				limit := int64(0)
				opts.RowLimit = &limit
				r, br := openBatched(t, path, opts, mode)
				defer closeBoth(t, r, br)

				recs, err := br.NextBatches(context.Background(), 4)
				assert.NoError(t, err)
				assert.Nil(t, recs)
			})

			t.Run("projection and row index", func(t *testing.T) {
				path := writeFile(t, "rows.csv", []byte(csvRows(7)))
				opts := testOptions(4)
				opts.Projection = []string{"c", "a"}
				opts.RowIndex = &config.RowIndex{Name: "idx", Offset: 100}
				r, br := openBatched(t, path, opts, mode)
				defer closeBoth(t, r, br)

				want := []string{"idx", "c", "a"}
				for i, f := range r.Schema().Fields() {
					assert.Equal(t, want[i], f.Name)
				}
				assert.Equal(t, arrow.PrimitiveTypes.Uint64, r.Schema().Field(0).Type)

				recs := drain(t, br, 1)
				defer releaseAll(recs)
				require.Equal(t, []int64{4, 3}, rowCounts(recs))

				var idx []uint64
				for _, rec := range recs {
					assert.True(t, rec.Schema().Equal(r.Schema()))
					idx = append(idx, rec.Column(0).(*array.Uint64).Uint64Values()...)
				}
				assert.Equal(t, []uint64{100, 101, 102, 103, 104, 105, 106}, idx)
				assert.Equal(t, seq(0, 7), int64Column(recs, 2))
			})

			t.Run("no header", func(t *testing.T) {
				path := writeFile(t, "rows.csv", []byte("1,x,1.5\n2,,\n"))
				opts := testOptions(10)
				opts.HasHeader = false
				r, br := openBatched(t, path, opts, mode)
				defer closeBoth(t, r, br)

				recs := drain(t, br, 1)
				defer releaseAll(recs)
				require.Len(t, recs, 1)
				assert.Equal(t, []int64{1, 2}, int64Column(recs, 0))
				assert.True(t, recs[0].Column(1).IsNull(1))
				assert.True(t, recs[0].Column(2).IsNull(1))
			})

			t.Run("skip rows, comments and quoted newlines", func(t *testing.T) {
				data := "preamble\n" +
					"a,b,c\n" +
					"9,skipped,0\n" +
					"# a comment\n" +
					"1,\"multi\nline\",1\n" +
					"\n" +
					"2,\"say \"\"hi\"\"\",2\r\n" +
					"3,plain,3"
				path := writeFile(t, "rows.csv", []byte(data))
				opts := testOptions(2)
				opts.SkipRows = 1
				opts.SkipRowsAfterHeader = 1
				opts.Comment = '#'
				r, br := openBatched(t, path, opts, mode)
				defer closeBoth(t, r, br)

				recs := drain(t, br, 8)
				defer releaseAll(recs)
				assert.Equal(t, []int64{2, 1}, rowCounts(recs))
				assert.Equal(t, []int64{1, 2, 3}, int64Column(recs, 0))
				assert.Equal(t, "multi\nline", recs[0].Column(1).(*array.String).Value(0))
				assert.Equal(t, `say "hi"`, recs[0].Column(1).(*array.String).Value(1))
			})

			t.Run("empty file", func(t *testing.T) {
				path := writeFile(t, "empty.csv", nil)
				r, br := openBatched(t, path, testOptions(3), mode)
				defer closeBoth(t, r, br)

				recs, err := br.NextBatches(context.Background(), 1)
				assert.NoError(t, err)
				assert.Nil(t, recs)
			})

			t.Run("header only", func(t *testing.T) {
				path := writeFile(t, "header.csv", []byte("a,b,c\n"))
				r, br := openBatched(t, path, testOptions(3), mode)
				defer closeBoth(t, r, br)

				recs, err := br.NextBatches(context.Background(), 1)
				assert.NoError(t, err)
				assert.Nil(t, recs)
			})

			t.Run("header width mismatch", func(t *testing.T) {
				path := writeFile(t, "narrow.csv", []byte("a,b\n1,2\n"))
				r, err := Open(context.Background(), path, testOptions(3))
				require.NoError(t, err)

				br, err := r.Batched(context.Background(), mode)
				assert.Nil(t, br)
				require.Error(t, err)
				assert.True(t, errors.Is(err, csverr.IOError))
				assert.Contains(t, err.Error(), csverrint.ErrSchemaMismatch)

				// the failed batched reader gave the borrow back
				assert.NoError(t, r.Close())
			})

			t.Run("decode error is sticky", func(t *testing.T) {
				path := writeFile(t, "bad.csv", []byte("a,b,c\n1,x,1\nnope,y,2\n"))
				r, br := openBatched(t, path, testOptions(10), mode)
				defer closeBoth(t, r, br)

				recs, err := br.NextBatches(context.Background(), 1)
				assert.Nil(t, recs)
				require.Error(t, err)
				assert.True(t, errors.Is(err, csverr.IOError))
				assert.Contains(t, err.Error(), csverrint.ErrDecodeBatch)

				var ioErr csverr.SourceIOError
				require.True(t, errors.As(err, &ioErr))
				assert.Equal(t, path, ioErr.Path())

				_, err2 := br.NextBatches(context.Background(), 1)
				assert.Equal(t, err, err2)
			})

			t.Run("releases everything it allocates", func(t *testing.T) {
				mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
				defer mem.AssertSize(t, 0)

				path := writeFile(t, "rows.csv", []byte(csvRows(25)))
				opts := testOptions(4)
				opts.Allocator = mem
				opts.Projection = []string{"b"}
				opts.RowIndex = &config.RowIndex{Name: "i"}
				r, br := openBatched(t, path, opts, mode)

				recs := drain(t, br, 3)
				assert.Len(t, recs, 7)
				releaseAll(recs)
				closeBoth(t, r, br)
			})
		})
	}
}

func TestBatchedReaderCompressed(t *testing.T) {
	plain := []byte(csvRows(50))

	compressors := map[string]func(*bytes.Buffer) error{
		"gzip": func(buf *bytes.Buffer) error {
			w := gzip.NewWriter(buf)
			if _, err := w.Write(plain); err != nil {
				return err
			}
			return w.Close()
		},
		"zstd": func(buf *bytes.Buffer) error {
			w, err := zstd.NewWriter(buf)
			if err != nil {
				return err
			}
			if _, err := w.Write(plain); err != nil {
				return err
			}
			return w.Close()
		},
		"lz4": func(buf *bytes.Buffer) error {
			w := lz4.NewWriter(buf)
			if _, err := w.Write(plain); err != nil {
				return err
			}
			return w.Close()
		},
	}

	for name, compress := range compressors {
		var buf bytes.Buffer
		require.NoError(t, compress(&buf))
		path := writeFile(t, "rows.csv."+name, buf.Bytes())

		for _, mode := range modes {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				r, br := openBatched(t, path, testOptions(16), mode)
				defer closeBoth(t, r, br)

				recs := drain(t, br, 2)
				defer releaseAll(recs)
				assert.Equal(t, []int64{16, 16, 16, 2}, rowCounts(recs))
				assert.Equal(t, seq(0, 50), int64Column(recs, 0))
			})
		}
	}
}

func TestBatchedReaderModesAgree(t *testing.T) {
	path := writeFile(t, "rows.csv", []byte(csvRows(1000)))

	var results [][]int64
	for _, mode := range modes {
		opts := testOptions(97)
		opts.BufferSize = 64
		r, br := openBatched(t, path, opts, mode)
		recs := drain(t, br, 3)
		results = append(results, int64Column(recs, 0))
		releaseAll(recs)
		closeBoth(t, r, br)
	}
	assert.Equal(t, seq(0, 1000), results[0])
	assert.Equal(t, results[0], results[1])
}

func TestReaderBorrow(t *testing.T) {
	path := writeFile(t, "rows.csv", []byte(csvRows(3)))

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			r, br := openBatched(t, path, testOptions(3), mode)

			_, err := r.Batched(context.Background(), ModeBuffered)
			require.Error(t, err)
			assert.Contains(t, err.Error(), csverrint.ErrReaderBorrowed)

			err = r.Close()
			require.Error(t, err)
			assert.Contains(t, err.Error(), csverrint.ErrReaderBorrowed)

			require.NoError(t, br.Close())
			assert.NoError(t, br.Close())

			_, err = br.NextBatches(context.Background(), 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), csverrint.ErrReaderClosed)

			require.NoError(t, r.Close())
			assert.NoError(t, r.Close())

			_, err = r.Batched(context.Background(), mode)
			require.Error(t, err)
			assert.Contains(t, err.Error(), csverrint.ErrReaderClosed)
		})
	}
}

func TestOpen(t *testing.T) {
	path := writeFile(t, "rows.csv", []byte(csvRows(3)))

	t.Run("missing file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.csv")
		_, err := Open(context.Background(), missing, testOptions(3))
		require.Error(t, err)
		assert.True(t, errors.Is(err, csverr.IOError))
		assert.True(t, errors.Is(err, os.ErrNotExist))
		assert.Contains(t, err.Error(), csverrint.ErrOpenFile)

		var ioErr csverr.SourceIOError
		require.True(t, errors.As(err, &ioErr))
		assert.Equal(t, missing, ioErr.Path())
	})

	cases := []struct {
		name   string
		modify func(*Options)
		msg    string
	}{
		{"no schema", func(o *Options) { o.Schema = nil }, csverrint.ErrInvalidOptions},
		{"zero chunk size", func(o *Options) { o.ChunkSize = 0 }, csverrint.ErrInvalidOptions},
		{"negative limit", func(o *Options) { n := int64(-1); o.RowLimit = &n }, csverrint.ErrInvalidOptions},
		{"negative skip", func(o *Options) { o.SkipRows = -1 }, csverrint.ErrInvalidOptions},
		{"quote separator", func(o *Options) { o.Separator = '"' }, csverrint.ErrInvalidOptions},
		{"comment equals separator", func(o *Options) { o.Comment = ',' }, csverrint.ErrInvalidOptions},
		{"unknown column", func(o *Options) { o.Projection = []string{"zzz"} }, csverrint.ErrInvalidProjection},
		{"row index collision", func(o *Options) { o.RowIndex = &config.RowIndex{Name: "a"} }, csverrint.ErrInvalidProjection},
		{"unsupported type", func(o *Options) {
			o.Schema = arrow.NewSchema([]arrow.Field{{Name: "l", Type: arrow.StructOf(arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64})}}, nil)
		}, csverrint.ErrInvalidProjection},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := testOptions(3)
			c.modify(&opts)
			r, err := Open(context.Background(), path, opts)
			assert.Nil(t, r)
			require.Error(t, err)
			assert.True(t, errors.Is(err, csverr.IOError))
			assert.Contains(t, err.Error(), c.msg)
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		r, err := Open(context.Background(), path, testOptions(3))
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Batched(context.Background(), ModeUnknown)
		require.Error(t, err)
		assert.Contains(t, err.Error(), csverrint.ErrCreateDecoder)
		assert.Equal(t, path, r.Path())
	})
}

func TestDetectCompression(t *testing.T) {
	assert.Equal(t, compressionGzip, detectCompression([]byte{0x1f, 0x8b, 0x08, 0x00}))
	assert.Equal(t, compressionZstd, detectCompression([]byte{0x28, 0xb5, 0x2f, 0xfd}))
	assert.Equal(t, compressionLz4, detectCompression([]byte{0x04, 0x22, 0x4d, 0x18}))
	assert.Equal(t, compressionNone, detectCompression([]byte("a,b,c")))
	assert.Equal(t, compressionNone, detectCompression(nil))
	assert.Equal(t, "zstd", compressionZstd.String())
}
