package csvsource

import (
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/databricks/databricks-csvsource-go/internal/chunkindex"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	"github.com/databricks/databricks-csvsource-go/internal/csvreader"
	"github.com/databricks/databricks-csvsource-go/internal/scanlimit"
	"github.com/databricks/databricks-csvsource-go/logger"
)

type (
	SourceConfig = config.SourceConfig
	ReadOptions  = config.ReadOptions
	ScanOptions  = config.ScanOptions
	RowIndex     = config.RowIndex
	Settings     = config.Settings

	// DecodeMode tags how a source pulls bytes from its file.
	DecodeMode = csvreader.Mode

	// IndexAllocator reserves contiguous ranges of chunk indices.
	IndexAllocator = chunkindex.Allocator
)

const (
	ModeUnknown      = csvreader.ModeUnknown
	ModeMemoryMapped = csvreader.ModeMemoryMapped
	ModeBuffered     = csvreader.ModeBuffered
)

// NewSourceConfig returns a config for path with a header row, comma separated
// fields and empty strings read as null.
func NewSourceConfig(path string, schema *arrow.Schema) *SourceConfig {
	cfg := config.WithDefaults()
	cfg.Path = path
	cfg.Schema = schema
	return cfg
}

// LoadSourceFile reads a SourceConfig from a toml description.
func LoadSourceFile(path string) (*SourceConfig, error) {
	return config.LoadSourceFile(path)
}

// LoadSettings reads process settings from the environment after loading envFiles.
func LoadSettings(envFiles ...string) (*Settings, error) {
	return config.LoadSettings(envFiles...)
}

// ApplySettings applies the process wide parts of s: the log level and the scan
// row limit. Thread count and chunk size are per source, see WithSettings.
func ApplySettings(s *Settings) error {
	if s == nil {
		return nil
	}
	if level, ok := s.LogLevel.Get(); ok {
		if err := logger.SetLogLevel(level); err != nil {
			return err
		}
	}
	if limit, ok := s.ScanRowLimit.Get(); ok {
		scanlimit.Set(limit)
	}
	return nil
}

// SetScanRowLimit caps every source initialized afterwards to n rows.
func SetScanRowLimit(n int64) {
	scanlimit.Set(n)
}

// ClearScanRowLimit removes the cap set by SetScanRowLimit.
func ClearScanRowLimit() {
	scanlimit.Clear()
}

// NewIndexCounter returns an IndexAllocator whose first index is base.
func NewIndexCounter(base uint64) IndexAllocator {
	return chunkindex.NewCounter(base)
}
