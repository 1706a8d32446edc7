package packstream

import "errors"

// ErrTruncatedInput is returned when the input is exhausted mid-value.
var ErrTruncatedInput = errors.New("packstream: truncated input")

// ErrUnknownMarker is returned when a byte is not in the marker table for
// the requested version.
var ErrUnknownMarker = errors.New("packstream: unknown marker")

// ErrOverflow is returned when a decoded size field exceeds the buffer's
// total allowance (the maxElements guard passed to Decode).
var ErrOverflow = errors.New("packstream: size overflow")

// ErrUnsupportedVersion is returned for any Version without a marker table.
var ErrUnsupportedVersion = errors.New("packstream: unsupported version")
