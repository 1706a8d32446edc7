// Package chunk implements the chunked message framing layered over the
// packed byte stream: each message is split into one or more length-prefixed
// chunks, the last followed by a zero-length chunk marking the message
// boundary.
package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mickamy/boltcore/buffer"
)

// MaxChunkSize is the largest payload a single chunk header (a 16-bit
// length) can address.
const MaxChunkSize = 65535

// ErrChunkSizeOutOfRange is returned when a requested chunk size is not in
// [1, MaxChunkSize].
var ErrChunkSizeOutOfRange = errors.New("chunk: size out of range")

// ErrTruncatedFrame is returned when a chunk header or body cannot be fully
// read from the input buffer.
var ErrTruncatedFrame = errors.New("chunk: truncated frame")

// Writer splits packed message bytes into length-prefixed chunks of at
// most maxChunkSize bytes, writing them (plus the terminating zero-length
// chunk) into an output buffer.
type Writer struct {
	maxChunkSize int
}

// NewWriter returns a Writer that never emits a chunk body larger than
// maxChunkSize bytes.
func NewWriter(maxChunkSize int) (*Writer, error) {
	if maxChunkSize <= 0 || maxChunkSize > MaxChunkSize {
		return nil, fmt.Errorf("chunk: new writer: %w", ErrChunkSizeOutOfRange)
	}
	return &Writer{maxChunkSize: maxChunkSize}, nil
}

// WriteMessage chunks message into out, terminated by the zero-length
// end-of-message marker. An empty message still yields exactly the
// terminator so the wire always carries a boundary.
func (w *Writer) WriteMessage(out *buffer.Buffer, message []byte) {
	for len(message) > 0 {
		n := len(message)
		if n > w.maxChunkSize {
			n = w.maxChunkSize
		}
		out.LoadUint16BE(uint16(n))
		out.Load(message[:n])
		message = message[n:]
	}
	out.LoadUint16BE(0)
}

// Reader reassembles chunks read from an input buffer back into whole
// messages.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadMessage consumes chunks from in until the zero-length terminator,
// appending each chunk's body to a growing message and returning it.
// Returns ErrTruncatedFrame if in runs out mid-chunk. The chunks read
// before that point stay consumed and are not restored, so a caller reading
// from a stream checks MessageSize first and calls ReadMessage only once a
// whole message is buffered.
func (r *Reader) ReadMessage(in *buffer.Buffer) ([]byte, error) {
	var message []byte
	for {
		n, err := in.UnloadUint16BE()
		if err != nil {
			return nil, fmt.Errorf("%w: chunk header: %v", ErrTruncatedFrame, err)
		}
		if n == 0 {
			return message, nil
		}
		body, err := in.UnloadTarget(int(n))
		if err != nil {
			return nil, fmt.Errorf("%w: chunk body: %v", ErrTruncatedFrame, err)
		}
		message = append(message, body...)
	}
}

// HeaderSize is the byte length of a chunk's length prefix.
const HeaderSize = 2

// MessageSize scans in, without consuming anything, to determine whether a
// complete message (one or more chunks plus its terminator) is currently
// available. When ready is true, size is the exact number of bytes
// ReadMessage will consume; the caller can then call ReadMessage knowing
// it will not fail partway through. When ready is false, the caller should
// read more bytes from the transport and try again.
func (r *Reader) MessageSize(in *buffer.Buffer) (size int, ready bool) {
	offset := 0
	for {
		header, err := in.PeekAt(offset, HeaderSize)
		if err != nil {
			return 0, false
		}
		n := int(binary.BigEndian.Uint16(header))
		offset += HeaderSize
		if n == 0 {
			return offset, true
		}
		if _, err := in.PeekAt(offset, n); err != nil {
			return 0, false
		}
		offset += n
	}
}
