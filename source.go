package csvsource

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow"
)

// Source is a pipeline operator producing batches.
type Source interface {
	// GetBatches produces the next group of batches.
	GetBatches(ctx context.Context) (SourceResult, error)
	// Name identifies the operator kind.
	Name() string
	// Close releases every resource held by the source.
	Close() error
}

type ResultKind int

const (
	// Finished means the source is exhausted. Chunks is empty.
	Finished ResultKind = iota
	// GotMoreData means Chunks holds at least one batch.
	GotMoreData
)

func (k ResultKind) String() string {
	switch k {
	case Finished:
		return "Finished"
	case GotMoreData:
		return "GotMoreData"
	}
	return "Unknown"
}

// DataChunk is one decoded batch tagged with its ordering index.
// The receiver owns Data and must release it.
type DataChunk struct {
	ChunkIndex uint64
	Data       arrow.Record
}

func (c DataChunk) Release() {
	if c.Data != nil {
		c.Data.Release()
	}
}

type SourceResult struct {
	Kind   ResultKind
	Chunks []DataChunk
}

// NumRows is the total row count across Chunks.
func (r SourceResult) NumRows() int64 {
	var n int64
	for _, c := range r.Chunks {
		if c.Data != nil {
			n += c.Data.NumRows()
		}
	}
	return n
}

// Release releases every chunk in the result.
func (r SourceResult) Release() {
	for _, c := range r.Chunks {
		c.Release()
	}
}
