package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/pkg/errors"
)

type columnSpec struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Nullable *bool  `toml:"nullable"`
}

type rowIndexSpec struct {
	Name   string `toml:"name"`
	Offset uint64 `toml:"offset"`
}

type readSpec struct {
	HasHeader           *bool         `toml:"has_header"`
	Separator           string        `toml:"separator"`
	Comment             string        `toml:"comment"`
	NullValues          []string      `toml:"null_values"`
	LowMemory           bool          `toml:"low_memory"`
	RowLimit            *int64        `toml:"row_limit"`
	Columns             []string      `toml:"columns"`
	SkipRows            int           `toml:"skip_rows"`
	SkipRowsAfterHeader int           `toml:"skip_rows_after_header"`
	RowIndex            *rowIndexSpec `toml:"row_index"`
}

type scanSpec struct {
	WithColumns []string      `toml:"with_columns"`
	RowLimit    *int64        `toml:"row_limit"`
	RowIndex    *rowIndexSpec `toml:"row_index"`
}

type sourceSpec struct {
	Path    string       `toml:"path"`
	Verbose bool         `toml:"verbose"`
	Columns []columnSpec `toml:"columns"`
	Read    readSpec     `toml:"read"`
	Scan    scanSpec     `toml:"scan"`
}

// LoadSourceFile reads a toml source description. A relative path inside the file
// is resolved against the directory holding the description.
func LoadSourceFile(path string) (*SourceConfig, error) {
	var spec sourceSpec
	md, err := toml.DecodeFile(path, &spec)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	if spec.Path != "" && !filepath.IsAbs(spec.Path) {
		spec.Path = filepath.Join(filepath.Dir(path), spec.Path)
	}
	return spec.toConfig()
}

// ParseSource decodes a toml source description held in memory.
func ParseSource(data string) (*SourceConfig, error) {
	var spec sourceSpec
	md, err := toml.Decode(data, &spec)
	if err != nil {
		return nil, errors.Wrap(err, "decoding source description")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in source description: %v", undecoded)
	}
	return spec.toConfig()
}

func (s sourceSpec) toConfig() (*SourceConfig, error) {
	cfg := WithDefaults()
	cfg.Path = s.Path
	cfg.Verbose = s.Verbose

	fields := make([]arrow.Field, 0, len(s.Columns))
	for _, c := range s.Columns {
		dt, err := ArrowType(c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", c.Name)
		}
		nullable := true
		if c.Nullable != nil {
			nullable = *c.Nullable
		}
		fields = append(fields, arrow.Field{Name: c.Name, Type: dt, Nullable: nullable})
	}
	cfg.Schema = arrow.NewSchema(fields, nil)

	ro := &cfg.ReadOptions
	if s.Read.HasHeader != nil {
		ro.HasHeader = *s.Read.HasHeader
	}
	if s.Read.Separator != "" {
		r, err := singleRune(s.Read.Separator)
		if err != nil {
			return nil, errors.Wrap(err, "separator")
		}
		ro.Separator = r
	}
	if s.Read.Comment != "" {
		r, err := singleRune(s.Read.Comment)
		if err != nil {
			return nil, errors.Wrap(err, "comment")
		}
		ro.Comment = r
	}
	if s.Read.NullValues != nil {
		ro.NullValues = s.Read.NullValues
	}
	ro.LowMemory = s.Read.LowMemory
	ro.RowLimit = s.Read.RowLimit
	ro.Columns = s.Read.Columns
	ro.SkipRows = s.Read.SkipRows
	ro.SkipRowsAfterHeader = s.Read.SkipRowsAfterHeader
	ro.RowIndex = s.Read.RowIndex.toRowIndex()

	cfg.ScanOptions = ScanOptions{
		WithColumns: s.Scan.WithColumns,
		RowLimit:    s.Scan.RowLimit,
		RowIndex:    s.Scan.RowIndex.toRowIndex(),
	}

	return cfg, nil
}

func (r *rowIndexSpec) toRowIndex() *RowIndex {
	if r == nil {
		return nil
	}
	return &RowIndex{Name: r.Name, Offset: r.Offset}
}

func singleRune(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("%q is not a single character", s)
	}
	return r, nil
}

var arrowTypes = map[string]arrow.DataType{
	"bool":      arrow.FixedWidthTypes.Boolean,
	"boolean":   arrow.FixedWidthTypes.Boolean,
	"int8":      arrow.PrimitiveTypes.Int8,
	"int16":     arrow.PrimitiveTypes.Int16,
	"int32":     arrow.PrimitiveTypes.Int32,
	"int64":     arrow.PrimitiveTypes.Int64,
	"uint8":     arrow.PrimitiveTypes.Uint8,
	"uint16":    arrow.PrimitiveTypes.Uint16,
	"uint32":    arrow.PrimitiveTypes.Uint32,
	"uint64":    arrow.PrimitiveTypes.Uint64,
	"float32":   arrow.PrimitiveTypes.Float32,
	"float64":   arrow.PrimitiveTypes.Float64,
	"string":    arrow.BinaryTypes.String,
	"utf8":      arrow.BinaryTypes.String,
	"date32":    arrow.FixedWidthTypes.Date32,
	"date":      arrow.FixedWidthTypes.Date32,
	"timestamp": arrow.FixedWidthTypes.Timestamp_us,
}

// ArrowType maps a type name used in source descriptions to an arrow type.
func ArrowType(name string) (arrow.DataType, error) {
	dt, ok := arrowTypes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported column type %q", name)
	}
	return dt, nil
}
