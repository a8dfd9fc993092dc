package csvreader

import (
	"bytes"
	"context"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/csv"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/databricks/databricks-csvsource-go/internal/config"
	csverrint "github.com/databricks/databricks-csvsource-go/internal/errors"
	"github.com/databricks/databricks-csvsource-go/internal/pool"
	"github.com/pkg/errors"
)

// decodeSpec turns raw segments into batches shaped like outSchema.
type decodeSpec struct {
	fileSchema *arrow.Schema
	projSchema *arrow.Schema // nil without projection
	outSchema  *arrow.Schema
	projection []int
	rowIndex   *config.RowIndex
	csvOpts    []csv.Option
	mem        memory.Allocator
}

func newDecodeSpec(o Options) (*decodeSpec, error) {
	d := &decodeSpec{
		fileSchema: o.Schema,
		rowIndex:   o.RowIndex,
		mem:        o.Allocator,
		csvOpts: []csv.Option{
			csv.WithAllocator(o.Allocator),
			csv.WithChunk(-1),
			csv.WithHeader(false),
			csv.WithComma(o.Separator),
			csv.WithNullReader(true, o.NullValues...),
		},
	}
	if o.Comment != 0 {
		d.csvOpts = append(d.csvOpts, csv.WithComment(o.Comment))
	}

	if err := probeSchema(o.Schema, d.csvOpts); err != nil {
		return nil, err
	}

	fields := o.Schema.Fields()
	if len(o.Projection) > 0 {
		d.projection = make([]int, len(o.Projection))
		projFields := make([]arrow.Field, len(o.Projection))
		for i, name := range o.Projection {
			idx := o.Schema.FieldIndices(name)
			if len(idx) == 0 {
				return nil, errors.Errorf("column %q not found in schema", name)
			}
			d.projection[i] = idx[0]
			projFields[i] = fields[idx[0]]
		}
		d.projSchema = arrow.NewSchema(projFields, nil)
		fields = projFields
	}

	if d.rowIndex != nil {
		if len(o.Schema.FieldIndices(d.rowIndex.Name)) > 0 {
			return nil, errors.Errorf("row index column %q collides with a schema column", d.rowIndex.Name)
		}
		withIndex := make([]arrow.Field, 0, len(fields)+1)
		withIndex = append(withIndex, arrow.Field{Name: d.rowIndex.Name, Type: arrow.PrimitiveTypes.Uint64})
		fields = append(withIndex, fields...)
	}
	d.outSchema = arrow.NewSchema(fields, nil)

	return d, nil
}

// probeSchema builds a throwaway decoder so unsupported column types surface as
// an error here rather than a panic inside a worker.
func probeSchema(schema *arrow.Schema, opts []csv.Option) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unsupported schema: %v", r)
		}
	}()

	r := csv.NewReader(bytes.NewReader(nil), schema, opts...)
	r.Release()
	return nil
}

// decodeAll decodes segs in parallel. The result keeps the order of segs.
func (d *decodeSpec) decodeAll(ctx context.Context, p *pool.Pool, segs []segment) ([]arrow.Record, error) {
	recs := make([]arrow.Record, len(segs))
	err := p.Run(ctx, len(segs), func(ctx context.Context, i int) error {
		rec, err := d.decode(segs[i])
		if err != nil {
			return csverrint.WrapErrf(err, "rows %d to %d", segs[i].Start(), segs[i].End())
		}
		recs[i] = rec
		return nil
	})
	if err != nil {
		for _, rec := range recs {
			if rec != nil {
				rec.Release()
			}
		}
		return nil, csverrint.NewIOError(ctx, csverrint.ErrDecodeBatch, err)
	}
	return recs, nil
}

func (d *decodeSpec) decode(seg segment) (arrow.Record, error) {
	r := csv.NewReader(bytes.NewReader(seg.data), d.fileSchema, d.csvOpts...)
	defer r.Release()

	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("no rows decoded, expected %d", seg.Count())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	// the reader releases its current record on Release
	rec := r.Record()
	rec.Retain()

	if rec.NumRows() != seg.Count() {
		rec.Release()
		return nil, errors.Errorf("decoded %d rows, expected %d", rec.NumRows(), seg.Count())
	}

	return d.shape(rec, seg.Start()), nil
}

// shape applies projection and row index injection. It takes ownership of rec.
func (d *decodeSpec) shape(rec arrow.Record, start int64) arrow.Record {
	if d.projection != nil {
		cols := make([]arrow.Array, len(d.projection))
		for i, idx := range d.projection {
			cols[i] = rec.Column(idx)
		}
		projected := array.NewRecord(d.projSchema, cols, rec.NumRows())
		rec.Release()
		rec = projected
	}

	if d.rowIndex != nil {
		idx := d.rowIndexColumn(uint64(start), rec.NumRows())
		cols := append([]arrow.Array{idx}, rec.Columns()...)
		indexed := array.NewRecord(d.outSchema, cols, rec.NumRows())
		idx.Release()
		rec.Release()
		rec = indexed
	}

	return rec
}

func (d *decodeSpec) rowIndexColumn(start uint64, n int64) arrow.Array {
	b := array.NewUint64Builder(d.mem)
	defer b.Release()

	b.Reserve(int(n))
	first := d.rowIndex.Offset + start
	for i := uint64(0); i < uint64(n); i++ {
		b.UnsafeAppend(first + i)
	}
	return b.NewArray()
}
