package packstream

import (
	"errors"
	"fmt"

	"github.com/mickamy/boltcore/buffer"
	"github.com/mickamy/boltcore/value"
)

// Decode reads one packed value from buf into v, reshaping v in place.
// maxElements bounds any single collection/string/byte-array size field,
// guarding against a hostile or corrupt length claim driving runaway
// allocation; 0 means unbounded.
func Decode(buf *buffer.Buffer, v *value.Value, ver Version, maxElements int) error {
	if ver != V1 {
		return ErrUnsupportedVersion
	}
	err := decodeV1(buf, v, maxElements)
	if errors.Is(err, buffer.ErrInsufficientData) {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return err
}

func checkSize(n, maxElements int) error {
	if maxElements > 0 && n > maxElements {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrOverflow, n, maxElements)
	}
	return nil
}

func decodeV1(buf *buffer.Buffer, v *value.Value, maxElements int) error {
	marker, err := buf.UnloadUint8()
	if err != nil {
		return fmt.Errorf("packstream: read marker: %w", err)
	}

	switch {
	case marker <= markerTinyIntPosMax:
		v.ToInt64(int64(int8(marker)))
		return nil
	case marker >= markerTinyIntNegMin:
		v.ToInt64(int64(int8(marker)))
		return nil
	case marker >= markerTinyStringMin && marker <= markerTinyStringMax:
		return decodeStringBody(buf, v, int(marker-markerTinyStringMin), maxElements)
	case marker >= markerTinyListMin && marker <= markerTinyListMax:
		return decodeListBody(buf, v, int(marker-markerTinyListMin), maxElements)
	case marker >= markerTinyDictMin && marker <= markerTinyDictMax:
		return decodeDictBody(buf, v, int(marker-markerTinyDictMin), maxElements)
	case marker >= markerTinyStructMin && marker <= markerTinyStructMax:
		return decodeStructBody(buf, v, int(marker-markerTinyStructMin), maxElements)
	}

	switch marker {
	case markerNull:
		v.ToNull()
		return nil
	case markerFalse:
		v.ToBit(false)
		return nil
	case markerTrue:
		v.ToBit(true)
		return nil
	case markerFloat:
		f, err := buf.UnloadFloat64BE()
		if err != nil {
			return err
		}
		v.ToFloat64(f)
		return nil
	case markerInt8:
		x, err := buf.UnloadInt8()
		if err != nil {
			return err
		}
		v.ToInt64(int64(x))
		return nil
	case markerInt16:
		x, err := buf.UnloadInt16BE()
		if err != nil {
			return err
		}
		v.ToInt64(int64(x))
		return nil
	case markerInt32:
		x, err := buf.UnloadInt32BE()
		if err != nil {
			return err
		}
		v.ToInt64(int64(x))
		return nil
	case markerInt64:
		x, err := buf.UnloadInt64BE()
		if err != nil {
			return err
		}
		v.ToInt64(x)
		return nil
	case markerBytes8:
		n, err := buf.UnloadUint8()
		if err != nil {
			return err
		}
		return decodeByteArrayBody(buf, v, int(n), maxElements)
	case markerBytes16:
		n, err := buf.UnloadUint16BE()
		if err != nil {
			return err
		}
		return decodeByteArrayBody(buf, v, int(n), maxElements)
	case markerBytes32:
		n, err := buf.UnloadUint32BE()
		if err != nil {
			return err
		}
		return decodeByteArrayBody(buf, v, int(n), maxElements)
	case markerString8:
		n, err := buf.UnloadUint8()
		if err != nil {
			return err
		}
		return decodeStringBody(buf, v, int(n), maxElements)
	case markerString16:
		n, err := buf.UnloadUint16BE()
		if err != nil {
			return err
		}
		return decodeStringBody(buf, v, int(n), maxElements)
	case markerString32:
		n, err := buf.UnloadUint32BE()
		if err != nil {
			return err
		}
		return decodeStringBody(buf, v, int(n), maxElements)
	case markerList8:
		n, err := buf.UnloadUint8()
		if err != nil {
			return err
		}
		return decodeListBody(buf, v, int(n), maxElements)
	case markerList16:
		n, err := buf.UnloadUint16BE()
		if err != nil {
			return err
		}
		return decodeListBody(buf, v, int(n), maxElements)
	case markerList32:
		n, err := buf.UnloadUint32BE()
		if err != nil {
			return err
		}
		return decodeListBody(buf, v, int(n), maxElements)
	case markerDict8:
		n, err := buf.UnloadUint8()
		if err != nil {
			return err
		}
		return decodeDictBody(buf, v, int(n), maxElements)
	case markerDict16:
		n, err := buf.UnloadUint16BE()
		if err != nil {
			return err
		}
		return decodeDictBody(buf, v, int(n), maxElements)
	case markerDict32:
		n, err := buf.UnloadUint32BE()
		if err != nil {
			return err
		}
		return decodeDictBody(buf, v, int(n), maxElements)
	case markerStruct8:
		n, err := buf.UnloadUint8()
		if err != nil {
			return err
		}
		return decodeStructBody(buf, v, int(n), maxElements)
	case markerStruct16:
		n, err := buf.UnloadUint16BE()
		if err != nil {
			return err
		}
		return decodeStructBody(buf, v, int(n), maxElements)
	default:
		return fmt.Errorf("%w: %#02x", ErrUnknownMarker, marker)
	}
}

func decodeStringBody(buf *buffer.Buffer, v *value.Value, n, maxElements int) error {
	if err := checkSize(n, maxElements); err != nil {
		return err
	}
	raw, err := buf.UnloadTarget(n)
	if err != nil {
		return fmt.Errorf("packstream: string body: %w", err)
	}
	v.ToString(string(raw))
	return nil
}

func decodeByteArrayBody(buf *buffer.Buffer, v *value.Value, n, maxElements int) error {
	if err := checkSize(n, maxElements); err != nil {
		return err
	}
	raw, err := buf.UnloadTarget(n)
	if err != nil {
		return fmt.Errorf("packstream: byte array body: %w", err)
	}
	v.ToByteArray(raw)
	return nil
}

func decodeListBody(buf *buffer.Buffer, v *value.Value, n, maxElements int) error {
	if err := checkSize(n, maxElements); err != nil {
		return err
	}
	v.ToList(int32(n))
	for i := int32(0); i < int32(n); i++ {
		if err := decodeV1(buf, v.At(i), maxElements); err != nil {
			return err
		}
	}
	return nil
}

func decodeDictBody(buf *buffer.Buffer, v *value.Value, n, maxElements int) error {
	if err := checkSize(n, maxElements); err != nil {
		return err
	}
	v.ToDictionary(int32(n))
	for i := int32(0); i < int32(n); i++ {
		key := value.New()
		if err := decodeV1(buf, key, maxElements); err != nil {
			return err
		}
		v.SetKey(i, key.StringVal())
		if err := decodeV1(buf, v.Val(i), maxElements); err != nil {
			return err
		}
	}
	return nil
}

func decodeStructBody(buf *buffer.Buffer, v *value.Value, n, maxElements int) error {
	if err := checkSize(n, maxElements); err != nil {
		return err
	}
	code, err := buf.UnloadUint8()
	if err != nil {
		return fmt.Errorf("packstream: structure code: %w", err)
	}
	v.ToStructure(int16(code), int32(n))
	for i := int32(0); i < int32(n); i++ {
		if err := decodeV1(buf, v.Field(i), maxElements); err != nil {
			return err
		}
	}
	return nil
}
