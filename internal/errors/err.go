package errors

import (
	"context"
	"fmt"

	csverr "github.com/databricks/databricks-csvsource-go/errors"
	"github.com/databricks/databricks-csvsource-go/execctx"
	"github.com/pkg/errors"
)

// Error messages
const (
	// setup errors, surfaced once on first use of a source
	ErrMissingConfig     = "source configuration already consumed"
	ErrInvalidOptions    = "invalid read options"
	ErrInvalidProjection = "invalid projection"
	ErrSchemaMismatch    = "schema mismatch"
	ErrOpenFile          = "failed to open file"
	ErrMapFile           = "failed to memory map file"
	ErrCreateDecoder     = "failed to create batched decoder"
	ErrDecompress        = "failed to decompress input"

	// decode errors, surfaced by the call that hit them
	ErrReadInput   = "failed to read input"
	ErrDecodeBatch = "failed to decode batch"

	// lifecycle errors
	ErrReaderBorrowed = "reader is still borrowed by a batched decoder"
	ErrReaderClosed   = "reader is closed"
	ErrSourceClosed   = "source is closed"
	ErrCloseSource    = "failed to close source"
)

type sourceError struct {
	err        error
	sourceId   string
	pipelineId string
	errType    string
}

var _ error = (*sourceError)(nil)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func newSourceError(ctx context.Context, msg string, err error) sourceError {
	// create an error with the new message
	if err == nil {
		err = errors.New(msg)
	} else {
		err = errors.WithMessage(err, msg)
	}

	// if the source error does not have a stack trace in its
	// error chain add a stack trace
	var st stackTracer
	if ok := errors.As(err, &st); !ok {
		err = errors.WithStack(err)
	}

	return sourceError{
		err:        err,
		sourceId:   execctx.SourceIdFromContext(ctx),
		pipelineId: execctx.PipelineIdFromContext(ctx),
		errType:    "unknown",
	}
}

func (e sourceError) Error() string {
	return fmt.Sprintf("csvsource: %s: %s", e.errType, e.err.Error())
}

func (e sourceError) Cause() error {
	return e.err
}

func (e sourceError) StackTrace() errors.StackTrace {
	var st stackTracer
	if ok := errors.As(e.err, &st); ok {
		return st.StackTrace()
	}

	return nil
}

func (e sourceError) SourceId() string {
	return e.sourceId
}

func (e sourceError) PipelineId() string {
	return e.pipelineId
}

// ioError is the single error kind raised by a csv source. Open, setup and decode
// failures all end up here; the message tells them apart.
type ioError struct {
	sourceError
	path string
}

var _ csverr.SourceIOError = (*ioError)(nil)

func (e ioError) Is(err error) bool {
	return err == csverr.IOError
}

func (e ioError) Unwrap() error {
	return e.err
}

func (e ioError) Path() string {
	return e.path
}

func NewIOError(ctx context.Context, msg string, err error) *ioError {
	srcErr := newSourceError(ctx, msg, err)
	srcErr.errType = "io error"
	return &ioError{sourceError: srcErr, path: execctx.PathFromContext(ctx)}
}

// wraps an error and adds trace if not already present
func WrapErr(err error, msg string) error {
	var st stackTracer
	if ok := errors.As(err, &st); ok {
		// wrap passed in error in a new error with the message
		return errors.WithMessage(err, msg)
	}

	// wrap passed in error in errors with the message and a stack trace
	return errors.Wrap(err, msg)
}

// adds a stack trace if not already present
func WrapErrf(err error, format string, args ...interface{}) error {
	var st stackTracer
	if ok := errors.As(err, &st); ok {
		// wrap passed in error in a new error with the formatted message
		return errors.WithMessagef(err, format, args...)
	}

	// wrap passed in error in errors with the formatted message and a stack trace
	return errors.Wrapf(err, format, args...)
}
