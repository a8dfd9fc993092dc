package errors

import (
	"context"
	"testing"

	csverr "github.com/databricks/databricks-csvsource-go/errors"
	"github.com/databricks/databricks-csvsource-go/execctx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSourceErrors(t *testing.T) {

	t.Run("errors.Is/As works with io error values", func(t *testing.T) {
		cause := errors.New("cause")
		var ioErr error = NewIOError(context.TODO(), ErrOpenFile, cause)
		e := errors.Wrap(ioErr, "is wrapped")

		assert.Equal(t, "is wrapped: csvsource: io error: failed to open file: cause", e.Error())

		// Should return true for its sentinel value
		assert.True(t, errors.Is(e, csverr.IOError))

		// should return true for actual io error
		assert.True(t, errors.Is(e, ioErr))

		// should return true for cause if io error is unwrapping correctly
		assert.True(t, errors.Is(e, cause))

		var ee csverr.SourceIOError
		assert.True(t, errors.As(e, &ee))
		assert.Equal(t, ee, ioErr)
	})

	t.Run("io error picks up ids and path from the context", func(t *testing.T) {
		ctx := execctx.NewContextWithPipelineId(context.Background(), "pipeline-1")
		ctx = execctx.NewContextWithSourceId(ctx, "source-1")
		ctx = execctx.NewContextWithPath(ctx, "/data/file.csv")

		err := NewIOError(ctx, ErrDecodeBatch, nil)
		assert.Equal(t, "pipeline-1", err.PipelineId())
		assert.Equal(t, "source-1", err.SourceId())
		assert.Equal(t, "/data/file.csv", err.Path())
		assert.Equal(t, "csvsource: io error: failed to decode batch", err.Error())
	})

	t.Run("stack trace is always present", func(t *testing.T) {
		err := NewIOError(context.TODO(), ErrReadInput, errors.New("no trace"))
		assert.NotNil(t, err.StackTrace())

		err = NewIOError(context.TODO(), ErrReadInput, nil)
		assert.NotNil(t, err.StackTrace())
	})

	t.Run("nil context leaves ids empty", func(t *testing.T) {
		//nolint:staticcheck
		err := NewIOError(nil, ErrSourceClosed, nil)
		assert.Empty(t, err.SourceId())
		assert.Empty(t, err.PipelineId())
		assert.Empty(t, err.Path())
	})
}

func TestWrapErr(t *testing.T) {
	t.Run("adds a stack trace when missing", func(t *testing.T) {
		base := context.Canceled
		err := WrapErr(base, "reading header")
		var st stackTracer
		assert.True(t, errors.As(err, &st))
		assert.Equal(t, "reading header: context canceled", err.Error())
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("keeps an existing stack trace", func(t *testing.T) {
		base := errors.New("boom")
		err := WrapErrf(base, "segment %d", 3)
		assert.Equal(t, "segment 3: boom", err.Error())

		var st stackTracer
		assert.True(t, errors.As(err, &st))
		assert.Equal(t, base.(stackTracer).StackTrace(), st.StackTrace())
	})
}
