package packstream_test

import (
	"errors"
	"testing"

	"github.com/mickamy/boltcore/buffer"
	"github.com/mickamy/boltcore/packstream"
	"github.com/mickamy/boltcore/value"
)

func roundTrip(t *testing.T, build func(v *value.Value)) *value.Value {
	t.Helper()
	in := value.New()
	build(in)

	buf := buffer.New(0)
	if err := packstream.Encode(buf, in, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := value.New()
	if err := packstream.Decode(buf, out, packstream.V1, 0); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return out
}

func TestRoundTripScalars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		build func(v *value.Value)
	}{
		{"null", func(v *value.Value) { v.ToNull() }},
		{"true", func(v *value.Value) { v.ToBit(true) }},
		{"false", func(v *value.Value) { v.ToBit(false) }},
		{"tiny positive int", func(v *value.Value) { v.ToInt64(42) }},
		{"tiny negative int", func(v *value.Value) { v.ToInt64(-5) }},
		{"int8", func(v *value.Value) { v.ToInt64(-100) }},
		{"int16", func(v *value.Value) { v.ToInt64(1000) }},
		{"int32", func(v *value.Value) { v.ToInt64(-70000) }},
		{"int64", func(v *value.Value) { v.ToInt64(1 << 40) }},
		{"float64", func(v *value.Value) { v.ToFloat64(3.14159) }},
		{"empty string", func(v *value.Value) { v.ToString("") }},
		{"short string", func(v *value.Value) { v.ToString("hello") }},
		{"long string", func(v *value.Value) {
			s := make([]byte, 500)
			for i := range s {
				s[i] = 'x'
			}
			v.ToString(string(s))
		}},
		{"byte array", func(v *value.Value) { v.ToByteArray([]byte{1, 2, 3, 4}) }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := value.New()
			tc.build(in)
			out := roundTrip(t, tc.build)
			if !in.Equal(out) {
				t.Fatalf("round trip mismatch: in=%s out=%s", in, out)
			}
		})
	}
}

// A 4-byte UTF-8 scalar encodes and decodes as a string of that length.
func TestFourByteCharRoundTrip(t *testing.T) {
	t.Parallel()

	out := roundTrip(t, func(v *value.Value) {
		v.ToChar(0x1D400)
	})
	if out.Type() != value.String {
		t.Fatalf("Type() = %s, want String (Char decodes as String)", out.Type())
	}
	if got, want := out.StringVal(), string(rune(0x1D400)); got != want {
		t.Fatalf("StringVal() = %q, want %q", got, want)
	}
	if out.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", out.Size())
	}
}

// Int8(123) packs as a single tiny-int byte, not the Int8 marker form.
func TestTinyIntMinimalEncoding(t *testing.T) {
	t.Parallel()

	v := value.New()
	v.ToInt8(123)

	buf := buffer.New(0)
	if err := packstream.Encode(buf, v, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := buf.Unloadable(); got != 1 {
		t.Fatalf("encoded length = %d, want 1 (minimal tiny-int form)", got)
	}
	b, err := buf.PeekUint8()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x7B {
		t.Fatalf("encoded byte = %#02x, want 0x7b", b)
	}
}

func TestMinimalEncodingChoosesNarrowestStringMarker(t *testing.T) {
	t.Parallel()

	v := value.New()
	v.ToString("hi")

	buf := buffer.New(0)
	if err := packstream.Encode(buf, v, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// tiny string marker (0x82) + 2 payload bytes, never the String8 form.
	if got := buf.Unloadable(); got != 3 {
		t.Fatalf("encoded length = %d, want 3", got)
	}
	b, err := buf.PeekUint8()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x82 {
		t.Fatalf("marker = %#02x, want 0x82 (tiny string of length 2)", b)
	}
}

func TestRoundTripList(t *testing.T) {
	t.Parallel()

	build := func(v *value.Value) {
		v.ToList(3)
		v.At(0).ToInt64(1)
		v.At(1).ToString("two")
		v.At(2).ToBit(true)
	}
	in := value.New()
	build(in)
	out := roundTrip(t, build)
	if !in.Equal(out) {
		t.Fatalf("list round trip mismatch: in=%s out=%s", in, out)
	}
}

func TestRoundTripDictionary(t *testing.T) {
	t.Parallel()

	build := func(v *value.Value) {
		v.ToDictionary(2)
		v.SetKey(0, "name")
		v.Val(0).ToString("Alice")
		v.SetKey(1, "age")
		v.Val(1).ToInt64(33)
	}
	in := value.New()
	build(in)
	out := roundTrip(t, build)
	if !in.Equal(out) {
		t.Fatalf("dict round trip mismatch: in=%s out=%s", in, out)
	}
	if out.IndexOfKey("age") != 1 {
		t.Fatalf("IndexOfKey(age) = %d, want 1", out.IndexOfKey("age"))
	}
}

func TestRoundTripStructure(t *testing.T) {
	t.Parallel()

	build := func(v *value.Value) {
		v.ToStructure(0x4E, 2)
		v.Field(0).ToInt64(1)
		v.Field(1).ToString("Person")
	}
	in := value.New()
	build(in)
	out := roundTrip(t, build)
	if !in.Equal(out) {
		t.Fatalf("structure round trip mismatch: in=%s out=%s", in, out)
	}
	if out.Code() != 0x4E {
		t.Fatalf("Code() = %#x, want 0x4e", out.Code())
	}
}

func TestMessageEncodesAsStructure(t *testing.T) {
	t.Parallel()

	in := value.New()
	in.ToMessage(0x01, 2)
	in.Field(0).ToString("client")
	in.Field(1).ToDictionary(0)

	buf := buffer.New(0)
	if err := packstream.Encode(buf, in, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := value.New()
	if err := packstream.Decode(buf, out, packstream.V1, 0); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Type() != value.Structure {
		t.Fatalf("Type() = %s, want Structure (wire form is shared with Message)", out.Type())
	}
	if out.Code() != 0x01 {
		t.Fatalf("Code() = %#x, want 0x01", out.Code())
	}
}

// Array variants encode as Lists of their element scalars; there is no
// marker distinguishing them from a plain List on decode.
func TestArrayVariantsDecodeAsLists(t *testing.T) {
	t.Parallel()

	in := value.New()
	in.ToCharArray([]rune{'a', 'b', 'c'})

	buf := buffer.New(0)
	if err := packstream.Encode(buf, in, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := value.New()
	if err := packstream.Decode(buf, out, packstream.V1, 0); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Type() != value.List {
		t.Fatalf("Type() = %s, want List", out.Type())
	}
	if out.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", out.Size())
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if got := out.At(int32(i)).StringVal(); got != w {
			t.Fatalf("At(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestDecodeUnknownMarker(t *testing.T) {
	t.Parallel()

	buf := buffer.New(0)
	buf.LoadUint8(0xC7) // reserved, unused in the v1 marker table

	out := value.New()
	err := packstream.Decode(buf, out, packstream.V1, 0)
	if err == nil {
		t.Fatal("expected error for unknown marker")
	}
}

func TestDecodeTruncatedInput(t *testing.T) {
	t.Parallel()

	buf := buffer.New(0)
	buf.LoadUint8(0xD0) // String8 marker, no length byte follows

	out := value.New()
	err := packstream.Decode(buf, out, packstream.V1, 0)
	if !errors.Is(err, packstream.ErrTruncatedInput) {
		t.Fatalf("Decode: got %v, want ErrTruncatedInput", err)
	}
}

func TestDecodeSizeOverLimit(t *testing.T) {
	t.Parallel()

	in := value.New()
	in.ToList(10)
	for i := int32(0); i < 10; i++ {
		in.At(i).ToInt64(int64(i))
	}

	buf := buffer.New(0)
	if err := packstream.Encode(buf, in, packstream.V1); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out := value.New()
	err := packstream.Decode(buf, out, packstream.V1, 5)
	if err == nil {
		t.Fatal("expected size-limit error")
	}
}

func TestDecodeHostileSizeRejectedByMessageLengthBound(t *testing.T) {
	t.Parallel()

	// A markerList32 claiming several million elements, but with only a
	// handful of trailing bytes actually present. This is the shape
	// boltconn.receiveRawMessage guards against by passing len(packed) (the
	// reassembled message's own byte length) as maxElements: no real List
	// can have more elements than bytes available to encode them, so the
	// decoder must reject the claim before it ever attempts to allocate
	// storage sized off it.
	buf := buffer.New(0)
	buf.LoadUint8(0xD6) // List32 marker
	buf.LoadUint32BE(5_000_000)
	buf.LoadInt8(1) // a single trailing element, nowhere near 5,000,000

	messageLen := buf.Unloadable()
	out := value.New()
	err := packstream.Decode(buf, out, packstream.V1, messageLen)
	if err == nil {
		t.Fatal("expected size-limit error for a length claim exceeding the message's own byte length")
	}
}

func TestUnsupportedVersion(t *testing.T) {
	t.Parallel()

	v := value.New()
	v.ToInt64(1)
	buf := buffer.New(0)
	if err := packstream.Encode(buf, v, packstream.Version(99)); err == nil {
		t.Fatal("expected ErrUnsupportedVersion")
	}
}
