package packstream

import (
	"fmt"

	"github.com/mickamy/boltcore/buffer"
	"github.com/mickamy/boltcore/value"
)

// ErrUnsupportedVariant is returned when asked to encode a variant with no
// independent wire representation (StructureArray is a value-model
// convenience for batch structure access; the wire only ever carries
// Structures inside Lists).
var ErrUnsupportedVariant = fmt.Errorf("packstream: variant has no independent wire form")

// Encode writes v's packed representation to buf.
func Encode(buf *buffer.Buffer, v *value.Value, ver Version) error {
	if ver != V1 {
		return ErrUnsupportedVersion
	}
	return encodeV1(buf, v)
}

func encodeV1(buf *buffer.Buffer, v *value.Value) error {
	switch v.Type() {
	case value.Null:
		buf.LoadUint8(markerNull)
		return nil
	case value.Bit:
		if v.Bit() {
			buf.LoadUint8(markerTrue)
		} else {
			buf.LoadUint8(markerFalse)
		}
		return nil
	case value.Byte:
		encodeInt(buf, int64(v.ByteVal()))
		return nil
	case value.Int8, value.Int16, value.Int32, value.Int64:
		encodeInt(buf, v.Int())
		return nil
	case value.Float64:
		buf.LoadUint8(markerFloat)
		buf.LoadFloat64BE(v.Float64Val())
		return nil
	case value.String, value.Char:
		encodeString(buf, v.StringVal())
		return nil
	case value.ByteArray:
		return encodeByteArray(buf, v.ByteArrayVal())
	case value.List:
		return encodeList(buf, v)
	case value.Dictionary:
		return encodeDictionary(buf, v)
	case value.Structure, value.Message:
		return encodeStructure(buf, v)
	case value.BitArray:
		bits := v.BitArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(bits))
		for _, b := range bits {
			if b {
				buf.LoadUint8(markerTrue)
			} else {
				buf.LoadUint8(markerFalse)
			}
		}
		return nil
	case value.Int8Array:
		xs := v.Int8ArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, x := range xs {
			encodeInt(buf, int64(x))
		}
		return nil
	case value.Int16Array:
		xs := v.Int16ArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, x := range xs {
			encodeInt(buf, int64(x))
		}
		return nil
	case value.Int32Array:
		xs := v.Int32ArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, x := range xs {
			encodeInt(buf, int64(x))
		}
		return nil
	case value.Int64Array:
		xs := v.Int64ArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, x := range xs {
			encodeInt(buf, x)
		}
		return nil
	case value.Float64Array:
		xs := v.Float64ArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, x := range xs {
			buf.LoadUint8(markerFloat)
			buf.LoadFloat64BE(x)
		}
		return nil
	case value.StringArray:
		xs := v.StringArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, s := range xs {
			encodeString(buf, s)
		}
		return nil
	case value.CharArray:
		xs := v.CharArrayVal()
		encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, len(xs))
		for _, s := range xs {
			encodeString(buf, s)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedVariant, v.Type())
	}
}

// encodeInt picks the narrowest marker that losslessly represents x.
func encodeInt(buf *buffer.Buffer, x int64) {
	switch {
	case x >= -16 && x <= 127:
		buf.LoadInt8(int8(x))
	case x >= -128 && x <= 127:
		buf.LoadUint8(markerInt8)
		buf.LoadInt8(int8(x))
	case x >= -32768 && x <= 32767:
		buf.LoadUint8(markerInt16)
		buf.LoadInt16BE(int16(x))
	case x >= -2147483648 && x <= 2147483647:
		buf.LoadUint8(markerInt32)
		buf.LoadInt32BE(int32(x))
	default:
		buf.LoadUint8(markerInt64)
		buf.LoadInt64BE(x)
	}
}

// encodeCollectionHeader writes the narrowest length marker for a
// tiny/8/16/32-bit sized collection (String/List/Dictionary).
func encodeCollectionHeader(buf *buffer.Buffer, tinyMin, tinyMax, m8, m16, m32 int, n int) {
	switch {
	case n <= tinyMax-tinyMin:
		buf.LoadUint8(uint8(tinyMin + n))
	case n <= 0xFF:
		buf.LoadUint8(uint8(m8))
		buf.LoadUint8(uint8(n))
	case n <= 0xFFFF:
		buf.LoadUint8(uint8(m16))
		buf.LoadUint16BE(uint16(n))
	default:
		buf.LoadUint8(uint8(m32))
		buf.LoadUint32BE(uint32(n))
	}
}

func encodeString(buf *buffer.Buffer, s string) {
	encodeCollectionHeader(buf, markerTinyStringMin, markerTinyStringMax, markerString8, markerString16, markerString32, len(s))
	buf.Load([]byte(s))
}

func encodeByteArray(buf *buffer.Buffer, b []byte) error {
	n := len(b)
	switch {
	case n <= 0xFF:
		buf.LoadUint8(markerBytes8)
		buf.LoadUint8(uint8(n))
	case n <= 0xFFFF:
		buf.LoadUint8(markerBytes16)
		buf.LoadUint16BE(uint16(n))
	default:
		buf.LoadUint8(markerBytes32)
		buf.LoadUint32BE(uint32(n))
	}
	buf.Load(b)
	return nil
}

func encodeList(buf *buffer.Buffer, v *value.Value) error {
	n := int(v.Size())
	encodeCollectionHeader(buf, markerTinyListMin, markerTinyListMax, markerList8, markerList16, markerList32, n)
	for i := int32(0); i < int32(n); i++ {
		if err := encodeV1(buf, v.At(i)); err != nil {
			return err
		}
	}
	return nil
}

func encodeDictionary(buf *buffer.Buffer, v *value.Value) error {
	n := int(v.Size())
	encodeCollectionHeader(buf, markerTinyDictMin, markerTinyDictMax, markerDict8, markerDict16, markerDict32, n)
	for i := int32(0); i < int32(n); i++ {
		encodeString(buf, v.Key(i))
		if err := encodeV1(buf, v.Val(i)); err != nil {
			return err
		}
	}
	return nil
}

func encodeStructure(buf *buffer.Buffer, v *value.Value) error {
	n := int(v.Size())
	switch {
	case n <= tinyMax:
		buf.LoadUint8(uint8(markerTinyStructMin + n))
	case n <= 0xFF:
		buf.LoadUint8(markerStruct8)
		buf.LoadUint8(uint8(n))
	case n <= 0xFFFF:
		buf.LoadUint8(markerStruct16)
		buf.LoadUint16BE(uint16(n))
	default:
		return fmt.Errorf("%w: structure field count %d exceeds 16-bit", ErrOverflow, n)
	}
	buf.LoadUint8(uint8(v.Code()))
	for i := int32(0); i < int32(n); i++ {
		if err := encodeV1(buf, v.Field(i)); err != nil {
			return err
		}
	}
	return nil
}
