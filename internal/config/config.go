package config

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/pkg/errors"
)

const (
	defaultSeparator = ','
	defaultQuote     = '"'
)

// RowIndex asks for a synthetic column holding each row's position in the file,
// counted from Offset.
type RowIndex struct {
	Name   string
	Offset uint64
}

// ReadOptions control how the csv file is parsed.
type ReadOptions struct {
	RowLimit  *int64    // caps total rows decoded, nil is unlimited
	LowMemory bool      // prefer buffered reads over a memory mapping
	Columns   []string  // projection, empty means every schema column
	RowIndex  *RowIndex // optional injected row index column

	HasHeader           bool
	Separator           rune
	Comment             rune // lines starting with Comment are skipped, 0 disables
	NullValues          []string
	SkipRows            int // records skipped before the header
	SkipRowsAfterHeader int // records skipped after the header
}

// ScanOptions come from the query plan and take precedence over ReadOptions.
type ScanOptions struct {
	WithColumns []string
	RowLimit    *int64
	RowIndex    *RowIndex
}

// SourceConfig describes one csv scan. A source consumes it exactly once.
type SourceConfig struct {
	Path        string
	Schema      *arrow.Schema
	ReadOptions ReadOptions
	ScanOptions ScanOptions
	Verbose     bool
}

func WithDefaults() *SourceConfig {
	return &SourceConfig{
		ReadOptions: ReadOptions{
			HasHeader:  true,
			Separator:  defaultSeparator,
			NullValues: []string{""},
		},
	}
}

// Projection returns the columns to decode or nil for all of them.
// Scan options win over read options and an empty list is no projection.
func (c *SourceConfig) Projection() []string {
	cols := c.ScanOptions.WithColumns
	if cols == nil {
		cols = c.ReadOptions.Columns
	}
	if len(cols) == 0 {
		return nil
	}
	return cols
}

// RowLimit returns the requested row cap before any process wide limit is applied.
func (c *SourceConfig) RowLimit() *int64 {
	if c.ScanOptions.RowLimit != nil {
		return c.ScanOptions.RowLimit
	}
	return c.ReadOptions.RowLimit
}

// RowIndexColumn returns the row index column to inject, if any.
func (c *SourceConfig) RowIndexColumn() *RowIndex {
	if c.ScanOptions.RowIndex != nil {
		return c.ScanOptions.RowIndex
	}
	return c.ReadOptions.RowIndex
}

// NumColumns is the number of columns a batch carries before row index injection.
func (c *SourceConfig) NumColumns() int {
	if p := c.Projection(); p != nil {
		return len(p)
	}
	if c.Schema == nil {
		return 0
	}
	return len(c.Schema.Fields())
}

// Validate checks the options without touching the file system.
func (c *SourceConfig) Validate() error {
	if c == nil {
		return errors.New("missing source config")
	}
	if c.Path == "" {
		return errors.New("path is empty")
	}
	if c.Schema == nil || len(c.Schema.Fields()) == 0 {
		return errors.New("schema has no columns")
	}

	ro := c.ReadOptions
	switch ro.Separator {
	case 0, '\n', '\r', defaultQuote:
		return fmt.Errorf("invalid separator %q", ro.Separator)
	}
	if ro.Comment == ro.Separator || ro.Comment == '\n' || ro.Comment == '\r' || ro.Comment == defaultQuote {
		return fmt.Errorf("invalid comment prefix %q", ro.Comment)
	}
	if ro.SkipRows < 0 || ro.SkipRowsAfterHeader < 0 {
		return errors.New("skip rows must not be negative")
	}
	if limit := c.RowLimit(); limit != nil && *limit < 0 {
		return fmt.Errorf("row limit %d must not be negative", *limit)
	}

	seen := map[string]bool{}
	for _, name := range c.Projection() {
		if seen[name] {
			return fmt.Errorf("column %q projected twice", name)
		}
		seen[name] = true
	}

	if ri := c.RowIndexColumn(); ri != nil {
		if strings.TrimSpace(ri.Name) == "" {
			return errors.New("row index column needs a name")
		}
		if c.Schema.HasField(ri.Name) {
			return fmt.Errorf("row index column %q collides with a schema column", ri.Name)
		}
	}

	return nil
}

func (c *SourceConfig) DeepCopy() *SourceConfig {
	if c == nil {
		return nil
	}

	return &SourceConfig{
		Path:   c.Path,
		Schema: c.Schema,
		ReadOptions: ReadOptions{
			RowLimit:            copyInt64(c.ReadOptions.RowLimit),
			LowMemory:           c.ReadOptions.LowMemory,
			Columns:             copyStrings(c.ReadOptions.Columns),
			RowIndex:            copyRowIndex(c.ReadOptions.RowIndex),
			HasHeader:           c.ReadOptions.HasHeader,
			Separator:           c.ReadOptions.Separator,
			Comment:             c.ReadOptions.Comment,
			NullValues:          copyStrings(c.ReadOptions.NullValues),
			SkipRows:            c.ReadOptions.SkipRows,
			SkipRowsAfterHeader: c.ReadOptions.SkipRowsAfterHeader,
		},
		ScanOptions: ScanOptions{
			WithColumns: copyStrings(c.ScanOptions.WithColumns),
			RowLimit:    copyInt64(c.ScanOptions.RowLimit),
			RowIndex:    copyRowIndex(c.ScanOptions.RowIndex),
		},
		Verbose: c.Verbose,
	}
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyRowIndex(p *RowIndex) *RowIndex {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
