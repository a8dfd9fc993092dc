package errors

import "github.com/pkg/errors"

// value to be used with errors.Is() to determine if an error chain contains an I/O error
// raised while opening or decoding a csv source
var IOError error = errors.New("I/O Error")

// Base interface for source errors
type SourceError interface {
	// Descriptive message describing the error
	Error() string

	// Id of the source operator that raised the error.
	// Appears in log messages as field sourceId.
	SourceId() string

	// User specified id of the pipeline the source belongs to.
	// Appears in log messages as field pipelineId.  See execctx.NewContextWithPipelineId()
	PipelineId() string

	// Stack trace associated with the error.  May be nil.
	StackTrace() errors.StackTrace

	// Underlying causative error. May be nil.
	Cause() error
}

// An error raised while opening, configuring or decoding a csv file.
// Example: the file does not exist, the projection names an unknown column,
// a row has the wrong number of fields
type SourceIOError interface {
	SourceError

	// Path of the file being read, empty if the failure happened before a path was known.
	Path() string
}
