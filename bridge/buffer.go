package bridge

import (
	"strings"
	"sync"

	"github.com/chazu/jbridge/foreign"
)

// Buffer is a structured byte region that can be copied into a foreign
// primitive array. *PrimitiveArray and RawBuffer implement it.
type Buffer interface {
	// AcquireBuffer exposes the region. A writable acquisition lets the
	// holder write into Data until the view is released.
	AcquireBuffer(writable bool) (*BufferView, error)
}

// BufferView is an acquired Buffer region. Format is a struct-module format
// code ("i", "<d", ...) or empty when only the item width is known.
type BufferView struct {
	Data     []byte
	ItemSize int
	Format   string

	once    sync.Once
	release func()
}

// Release gives the region back to its Buffer. It is safe to call more
// than once.
func (v *BufferView) Release() {
	v.once.Do(func() {
		if v.release != nil {
			v.release()
		}
	})
}

// Len returns the number of items in the view.
func (v *BufferView) Len() int {
	if v.ItemSize == 0 {
		return 0
	}
	return len(v.Data) / v.ItemSize
}

// RawBuffer is a width-only buffer over a byte slice.
type RawBuffer struct {
	Data     []byte
	ItemSize int
}

func (b RawBuffer) AcquireBuffer(writable bool) (*BufferView, error) {
	return &BufferView{Data: b.Data, ItemSize: b.ItemSize}, nil
}

// ---------------------------------------------------------------------------
// Format codes
// ---------------------------------------------------------------------------

// formatSizes holds the standard item size of each supported format code.
var formatSizes = map[byte]int{
	'?': 1, 'b': 1, 'B': 1,
	'h': 2, 'H': 2, 'u': 2,
	'i': 4, 'I': 4,
	'l': 4, 'L': 4,
	'q': 8, 'Q': 8,
	'f': 4, 'd': 8,
}

// inboundFormats tags arrays copied out of the foreign runtime.
var inboundFormats = map[foreign.Kind]string{
	foreign.KindBoolean: "b",
	foreign.KindByte:    "b",
	foreign.KindChar:    "H",
	foreign.KindShort:   "h",
	foreign.KindInt:     "i",
	foreign.KindLong:    "q",
	foreign.KindFloat:   "f",
	foreign.KindDouble:  "d",
}

// formatCode strips a byte-order prefix and returns the single format code,
// or 0 when the format is empty or not a single item.
func formatCode(format string) byte {
	format = strings.TrimLeft(format, "@=<>!")
	if len(format) != 1 {
		return 0
	}
	return format[0]
}

// assessFormat scores a buffer against a primitive array of kind k. Exact
// element formats score 100, same width with other signedness 90, and a
// buffer without a format tag 10 when only its width matches.
func assessFormat(k foreign.Kind, format string, itemSize int) int {
	if itemSize != k.Size() {
		return 0
	}
	if format == "" {
		return 10
	}
	code := formatCode(format)
	switch k {
	case foreign.KindBoolean:
		switch code {
		case 'b', 'B', '?':
			return 100
		}
	case foreign.KindByte:
		switch code {
		case 'b':
			return 100
		case 'B':
			return 90
		}
	case foreign.KindChar:
		switch code {
		case 'u':
			return 100
		case 'H':
			return 90
		case 'h':
			return 80
		}
	case foreign.KindShort:
		switch code {
		case 'h':
			return 100
		case 'H':
			return 90
		}
	case foreign.KindInt, foreign.KindLong:
		exact, other := byte('i'), byte('I')
		if k == foreign.KindLong {
			exact, other = 'q', 'Q'
		}
		switch code {
		case exact, 'l':
			return 100
		case other, 'L':
			return 90
		}
	case foreign.KindFloat:
		if code == 'f' {
			return 100
		}
	case foreign.KindDouble:
		if code == 'd' {
			return 100
		}
	}
	return 0
}
