package rows

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"
	csvsource "github.com/databricks/databricks-csvsource-go"
	csverr "github.com/databricks/databricks-csvsource-go/errors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(t *testing.T, n int) *csvsource.CsvSource {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("id,label\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%d,l%d\n", i, i)
	}
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "label", Type: arrow.BinaryTypes.String},
	}, nil)
	src := csvsource.New(csvsource.NewSourceConfig(path, schema), csvsource.WithThreads(2), csvsource.WithChunkSize(10))
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestArrowBatchIterator(t *testing.T) {
	t.Run("walks every record in order", func(t *testing.T) {
		it := NewArrowBatchIterator(context.Background(), testSource(t, 35))
		defer it.Close()

		var ids []int64
		for it.HasNext() {
			rec, err := it.Next()
			require.NoError(t, err)
			ids = append(ids, rec.Column(0).(*array.Int64).Int64Values()...)
			rec.Release()
		}
		require.Len(t, ids, 35)
		for i, id := range ids {
			assert.Equal(t, int64(i), id)
		}

		rec, err := it.Next()
		assert.Nil(t, rec)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("surfaces source errors", func(t *testing.T) {
		schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)
		src := csvsource.New(csvsource.NewSourceConfig(filepath.Join(t.TempDir(), "missing.csv"), schema))
		defer src.Close()

		it := NewArrowBatchIterator(context.Background(), src)
		defer it.Close()

		assert.False(t, it.HasNext())
		_, err := it.Next()
		require.Error(t, err)
		assert.True(t, errors.Is(err, csverr.IOError))
	})

	t.Run("close releases pending batches", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		var sb strings.Builder
		sb.WriteString("id\n")
		for i := 0; i < 50; i++ {
			fmt.Fprintf(&sb, "%d\n", i)
		}
		path := filepath.Join(t.TempDir(), "ids.csv")
		require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
		schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, nil)

		src := csvsource.New(csvsource.NewSourceConfig(path, schema),
			csvsource.WithThreads(4), csvsource.WithChunkSize(5), csvsource.WithAllocator(mem))
		defer src.Close()

		it := NewArrowBatchIterator(context.Background(), src)
		rec, err := it.Next()
		require.NoError(t, err)
		rec.Release()
		it.Close()
		assert.False(t, it.HasNext())
	})
}

func TestWriteIPCStream(t *testing.T) {
	t.Run("round trips through an ipc reader", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := WriteIPCStream(&buf, NewArrowBatchIterator(context.Background(), testSource(t, 42)), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)

		rdr, err := ipc.NewReader(&buf)
		require.NoError(t, err)
		defer rdr.Release()

		assert.Equal(t, "label", rdr.Schema().Field(1).Name)
		var rows int64
		for rdr.Next() {
			rows += rdr.Record().NumRows()
		}
		require.NoError(t, rdr.Err())
		assert.Equal(t, int64(42), rows)
	})

	t.Run("empty source without a schema writes nothing", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := WriteIPCStream(&buf, NewArrowBatchIterator(context.Background(), testSource(t, 0)), nil, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, buf.Len())
	})

	t.Run("empty source with its schema is a readable stream", func(t *testing.T) {
		src := testSource(t, 0)
		it := NewArrowBatchIterator(context.Background(), src)
		defer it.Close()
		assert.False(t, it.HasNext())
		require.NotNil(t, src.Schema())

		var buf bytes.Buffer
		n, err := WriteIPCStream(&buf, it, src.Schema(), nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NotZero(t, buf.Len())

		rdr, err := ipc.NewReader(&buf)
		require.NoError(t, err)
		defer rdr.Release()

		assert.True(t, rdr.Schema().Equal(src.Schema()))
		assert.False(t, rdr.Next())
		assert.NoError(t, rdr.Err())
	})

	t.Run("schema given upfront matches the records", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		src := testSource(t, 15)
		it := NewArrowBatchIterator(context.Background(), src)
		defer it.Close()
		require.True(t, it.HasNext())

		var buf bytes.Buffer
		n, err := WriteIPCStream(&buf, it, src.Schema(), mem)
		require.NoError(t, err)
		assert.Equal(t, int64(15), n)

		rdr, err := ipc.NewReader(&buf)
		require.NoError(t, err)
		defer rdr.Release()
		var rows int64
		for rdr.Next() {
			rows += rdr.Record().NumRows()
		}
		require.NoError(t, rdr.Err())
		assert.Equal(t, int64(15), rows)
	})
}
