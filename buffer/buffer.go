// Package buffer implements the growable byte FIFO used to stage bytes on
// their way into and out of the wire protocol: a load (append) cursor and an
// unload (consume) cursor over a single backing slice, with compaction to
// reclaim a consumed prefix.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned when an unload operation asks for more
// bytes than are currently available to consume.
var ErrInsufficientData = errors.New("buffer: insufficient data")

const defaultInitialCapacity = 8192

// Buffer is a growable FIFO of bytes with two monotonic cursors: unloaded
// ≤ loaded ≤ cap(data). Bytes in [unloaded, loaded) are available to read;
// bytes in [loaded, cap(data)) are free capacity for writing.
type Buffer struct {
	data     []byte
	loaded   int // extent: write cursor
	unloaded int // cursor: read cursor
}

// New creates a Buffer with the given initial capacity. A zero or negative
// size falls back to a sane default.
func New(initialCapacity int) *Buffer {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	return &Buffer{data: make([]byte, initialCapacity)}
}

// Loadable returns how many bytes can be written before the buffer must grow.
func (b *Buffer) Loadable() int {
	return len(b.data) - b.loaded
}

// Unloadable returns how many bytes are available to read.
func (b *Buffer) Unloadable() int {
	return b.loaded - b.unloaded
}

// grow ensures at least n more bytes of capacity exist past the load cursor.
func (b *Buffer) grow(n int) {
	if b.Loadable() >= n {
		return
	}
	needed := b.loaded + n
	newCap := len(b.data)
	if newCap == 0 {
		newCap = defaultInitialCapacity
	}
	for newCap < needed {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.loaded])
	b.data = grown
}

// LoadTarget returns a writable slice of length n, advancing the load
// cursor. Growing the backing array if necessary.
func (b *Buffer) LoadTarget(n int) []byte {
	b.grow(n)
	start := b.loaded
	b.loaded += n
	return b.data[start:b.loaded]
}

// Load appends a copy of p to the buffer.
func (b *Buffer) Load(p []byte) {
	copy(b.LoadTarget(len(p)), p)
}

// UnloadTarget returns a readable slice of length n, advancing the unload
// cursor. The caller must not request more than Unloadable().
func (b *Buffer) UnloadTarget(n int) ([]byte, error) {
	if n > b.Unloadable() {
		return nil, fmt.Errorf("buffer: unload %d bytes: %w", n, ErrInsufficientData)
	}
	start := b.unloaded
	b.unloaded += n
	return b.data[start:b.unloaded], nil
}

// Unload copies n bytes out of the buffer into dst, advancing the unload
// cursor.
func (b *Buffer) Unload(dst []byte, n int) error {
	src, err := b.UnloadTarget(n)
	if err != nil {
		return err
	}
	copy(dst, src)
	return nil
}

// PeekUint8 returns the next byte without advancing the unload cursor.
func (b *Buffer) PeekUint8() (uint8, error) {
	if b.Unloadable() < 1 {
		return 0, fmt.Errorf("buffer: peek uint8: %w", ErrInsufficientData)
	}
	return b.data[b.unloaded], nil
}

// PeekAt returns n bytes starting offset bytes past the unload cursor,
// without advancing it. Used by readers that need to look ahead across
// multiple framed pieces before committing to consume any of them.
func (b *Buffer) PeekAt(offset, n int) ([]byte, error) {
	start := b.unloaded + offset
	end := start + n
	if end > b.loaded {
		return nil, fmt.Errorf("buffer: peek at %d+%d: %w", offset, n, ErrInsufficientData)
	}
	return b.data[start:end], nil
}

// LoadFill grows the buffer to guarantee maxRead bytes of free capacity,
// hands fill a slice of exactly that length to populate, then advances the
// load cursor by only however many bytes fill actually wrote. This is the
// bridge between a Buffer and a partial-read source such as a net.Conn,
// where a single read may return fewer bytes than requested.
func (b *Buffer) LoadFill(fill func(p []byte) (int, error), maxRead int) (int, error) {
	b.grow(maxRead)
	dst := b.data[b.loaded : b.loaded+maxRead]
	n, err := fill(dst)
	b.loaded += n
	return n, err
}

// Compact shifts the unconsumed tail ([unloaded, loaded)) to offset 0,
// zeroing the unload cursor and shrinking the load cursor by the amount
// discarded. Unloadable() and the bytes it would yield are unchanged.
func (b *Buffer) Compact() {
	if b.unloaded == 0 {
		return
	}
	n := copy(b.data, b.data[b.unloaded:b.loaded])
	b.loaded = n
	b.unloaded = 0
}

// Reset discards all loaded/unloaded content, keeping the backing array.
func (b *Buffer) Reset() {
	b.loaded = 0
	b.unloaded = 0
}

// ---- big-endian primitive encoders ----

func (b *Buffer) LoadUint8(x uint8) { b.LoadTarget(1)[0] = x }

func (b *Buffer) LoadInt8(x int8) { b.LoadTarget(1)[0] = byte(x) }

func (b *Buffer) LoadUint16BE(x uint16) {
	binary.BigEndian.PutUint16(b.LoadTarget(2), x)
}

func (b *Buffer) LoadInt16BE(x int16) {
	binary.BigEndian.PutUint16(b.LoadTarget(2), uint16(x))
}

func (b *Buffer) LoadInt32BE(x int32) {
	binary.BigEndian.PutUint32(b.LoadTarget(4), uint32(x))
}

func (b *Buffer) LoadUint32BE(x uint32) {
	binary.BigEndian.PutUint32(b.LoadTarget(4), x)
}

func (b *Buffer) LoadInt64BE(x int64) {
	binary.BigEndian.PutUint64(b.LoadTarget(8), uint64(x))
}

func (b *Buffer) LoadFloat64BE(x float64) {
	binary.BigEndian.PutUint64(b.LoadTarget(8), math.Float64bits(x))
}

// ---- big-endian primitive decoders ----

func (b *Buffer) UnloadUint8() (uint8, error) {
	s, err := b.UnloadTarget(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (b *Buffer) UnloadInt8() (int8, error) {
	s, err := b.UnloadTarget(1)
	if err != nil {
		return 0, err
	}
	return int8(s[0]), nil
}

func (b *Buffer) UnloadUint16BE() (uint16, error) {
	s, err := b.UnloadTarget(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(s), nil
}

func (b *Buffer) UnloadInt16BE() (int16, error) {
	v, err := b.UnloadUint16BE()
	return int16(v), err
}

func (b *Buffer) UnloadInt32BE() (int32, error) {
	s, err := b.UnloadTarget(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(s)), nil
}

func (b *Buffer) UnloadUint32BE() (uint32, error) {
	s, err := b.UnloadTarget(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(s), nil
}

func (b *Buffer) UnloadInt64BE() (int64, error) {
	s, err := b.UnloadTarget(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(s)), nil
}

func (b *Buffer) UnloadFloat64BE() (float64, error) {
	s, err := b.UnloadTarget(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(s)), nil
}

// ---- UTF-8 scalar support ----

// RuneLen returns the number of bytes needed to UTF-8 encode r (1-4).
func RuneLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}

// LoadRune UTF-8 encodes r into the buffer.
func (b *Buffer) LoadRune(r rune) {
	n := RuneLen(r)
	dst := b.LoadTarget(n)
	encodeRuneUTF8(dst, r)
}

// encodeRuneUTF8 writes the UTF-8 encoding of r into dst, which must be
// exactly RuneLen(r) bytes.
func encodeRuneUTF8(dst []byte, r rune) {
	switch n := len(dst); n {
	case 1:
		dst[0] = byte(r)
	case 2:
		dst[0] = 0xC0 | byte(r>>6)
		dst[1] = 0x80 | byte(r&0x3F)
	case 3:
		dst[0] = 0xE0 | byte(r>>12)
		dst[1] = 0x80 | byte((r>>6)&0x3F)
		dst[2] = 0x80 | byte(r&0x3F)
	case 4:
		dst[0] = 0xF0 | byte(r>>18)
		dst[1] = 0x80 | byte((r>>12)&0x3F)
		dst[2] = 0x80 | byte((r>>6)&0x3F)
		dst[3] = 0x80 | byte(r&0x3F)
	}
}
