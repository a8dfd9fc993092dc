package execctx

import (
	"context"
)

// Key name to look for ids in context
// using custom type to prevent key collision
type contextKey int

const (
	PipelineIdContextKey contextKey = iota
	SourceIdContextKey
	PathContextKey
)

// NewContextWithPipelineId creates a new context with pipelineId value. Used by Logger to populate field pipelineId.
func NewContextWithPipelineId(ctx context.Context, pipelineId string) context.Context {
	return context.WithValue(ctx, PipelineIdContextKey, pipelineId)
}

// PipelineIdFromContext retrieves the pipelineId stored in context.
func PipelineIdFromContext(ctx context.Context) string {
	return stringFromContext(ctx, PipelineIdContextKey)
}

// NewContextWithSourceId creates a new context with sourceId value.
// The source ID will be displayed in log messages and other diagnostic information.
func NewContextWithSourceId(ctx context.Context, sourceId string) context.Context {
	return context.WithValue(ctx, SourceIdContextKey, sourceId)
}

// SourceIdFromContext retrieves the sourceId stored in context.
func SourceIdFromContext(ctx context.Context) string {
	return stringFromContext(ctx, SourceIdContextKey)
}

// NewContextWithPath creates a new context with the path of the file a source reads.
func NewContextWithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, PathContextKey, path)
}

// PathFromContext retrieves the file path stored in context.
func PathFromContext(ctx context.Context) string {
	return stringFromContext(ctx, PathContextKey)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}

	s, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return s
}
