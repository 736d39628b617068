package bridge

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// PrimitiveArray is a fixed-length, format-tagged container of scalars in
// native byte order. Arrays returned by foreign calls arrive as
// *PrimitiveArray, and a *PrimitiveArray can be passed wherever a primitive
// array parameter is expected.
type PrimitiveArray struct {
	mu       sync.Mutex
	format   string
	itemSize int
	data     []byte
	exports  int
}

// NewPrimitiveArray allocates a zeroed array of length items of the given
// format code.
func NewPrimitiveArray(format string, length int) (*PrimitiveArray, error) {
	size, ok := formatSizes[formatCode(format)]
	if !ok {
		return nil, fmt.Errorf("bridge: unsupported array format %q", format)
	}
	if length < 0 {
		return nil, fmt.Errorf("bridge: negative array length %d", length)
	}
	return &PrimitiveArray{format: format, itemSize: size, data: make([]byte, length*size)}, nil
}

func newPrimitiveArrayFrom(format string, data []byte) *PrimitiveArray {
	return &PrimitiveArray{format: format, itemSize: formatSizes[formatCode(format)], data: data}
}

func (a *PrimitiveArray) Format() string { return a.format }
func (a *PrimitiveArray) ItemSize() int  { return a.itemSize }
func (a *PrimitiveArray) Len() int       { return len(a.data) / a.itemSize }

// Bytes returns the backing storage. Writes through it are visible to the
// next foreign call the array is passed to.
func (a *PrimitiveArray) Bytes() []byte { return a.data }

// AcquireBuffer exposes the array. Any number of views, writable or not,
// may be held at once; the same array can back several parameters of one
// call.
func (a *PrimitiveArray) AcquireBuffer(writable bool) (*BufferView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exports++
	return &BufferView{
		Data:     a.data,
		ItemSize: a.itemSize,
		Format:   a.format,
		release: func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.exports--
		},
	}, nil
}

// Exports returns the number of views currently held.
func (a *PrimitiveArray) Exports() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exports
}

// Index returns item i as the Go type of the array format.
func (a *PrimitiveArray) Index(i int) (any, error) {
	if i < 0 || i >= a.Len() {
		return nil, fmt.Errorf("bridge: index %d out of range [0:%d]", i, a.Len())
	}
	b := a.data[i*a.itemSize:]
	switch formatCode(a.format) {
	case '?':
		return b[0] != 0, nil
	case 'b':
		return int8(b[0]), nil
	case 'B':
		return b[0], nil
	case 'h':
		return int16(binary.NativeEndian.Uint16(b)), nil
	case 'H', 'u':
		return binary.NativeEndian.Uint16(b), nil
	case 'i', 'l':
		return int32(binary.NativeEndian.Uint32(b)), nil
	case 'I', 'L':
		return binary.NativeEndian.Uint32(b), nil
	case 'q':
		return int64(binary.NativeEndian.Uint64(b)), nil
	case 'Q':
		return binary.NativeEndian.Uint64(b), nil
	case 'f':
		return math.Float32frombits(binary.NativeEndian.Uint32(b)), nil
	case 'd':
		return math.Float64frombits(binary.NativeEndian.Uint64(b)), nil
	}
	return nil, fmt.Errorf("bridge: unsupported array format %q", a.format)
}

// SetIndex stores v at item i, truncating integers to the item width.
func (a *PrimitiveArray) SetIndex(i int, v any) error {
	if i < 0 || i >= a.Len() {
		return fmt.Errorf("bridge: index %d out of range [0:%d]", i, a.Len())
	}
	b := a.data[i*a.itemSize:]
	code := formatCode(a.format)
	if code == 'f' || code == 'd' {
		f, ok := asFloat(v)
		if !ok {
			return &ConversionError{Value: v, Target: a.format, Reason: "not a number"}
		}
		if code == 'f' {
			binary.NativeEndian.PutUint32(b, math.Float32bits(float32(f)))
		} else {
			binary.NativeEndian.PutUint64(b, math.Float64bits(f))
		}
		return nil
	}
	n, ok := asInt(v)
	if !ok {
		return &ConversionError{Value: v, Target: a.format, Reason: "not an integer"}
	}
	switch a.itemSize {
	case 1:
		b[0] = byte(n)
	case 2:
		binary.NativeEndian.PutUint16(b, uint16(n))
	case 4:
		binary.NativeEndian.PutUint32(b, uint32(n))
	case 8:
		binary.NativeEndian.PutUint64(b, uint64(n))
	}
	return nil
}
