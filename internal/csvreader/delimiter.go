package csvreader

// Delimiter locates a contiguous run of data rows in the file.
type Delimiter interface {
	Start() int64
	End() int64
	Count() int64
	Contains(int64) bool
}

func NewDelimiter(start, count int64) Delimiter {
	return delimiter{start: start, count: count}
}

type delimiter struct {
	start int64
	count int64
}

func (d delimiter) Start() int64 { return d.start }
func (d delimiter) Count() int64 { return d.count }
func (d delimiter) End() int64 {
	return d.start + d.count - 1
}
func (d delimiter) Contains(i int64) bool { return d.count > 0 && i >= d.start && i <= d.End() }

// segment is the raw bytes of Count() data rows starting at row Start().
type segment struct {
	Delimiter
	data []byte
}
