package csvreader

// Mode tags how a batched reader pulls bytes from the file.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeMemoryMapped
	ModeBuffered
)

var modeNames = []string{"Unknown", "MemoryMapped", "Buffered"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return modeNames[ModeUnknown]
	}
	return modeNames[m]
}

// ModeFor picks the decode mode for the low memory policy flag.
func ModeFor(lowMemory bool) Mode {
	if lowMemory {
		return ModeBuffered
	}
	return ModeMemoryMapped
}
