// Package value implements the tagged-union value model carried by every
// request and response on the wire: a single Value type that can be
// reshaped into any variant in place, recycling its backing storage when
// the new layout fits instead of reallocating.
package value

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Kind identifies which variant a Value currently holds.
type Kind int

const (
	Null Kind = iota
	Bit
	Byte
	Int8
	Int16
	Int32
	Int64
	Float64
	String
	Char
	ByteArray
	List
	Dictionary
	Structure
	StructureArray
	Message
	BitArray
	Int8Array
	Int16Array
	Int32Array
	Int64Array
	Float64Array
	StringArray
	CharArray
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Bit:
		return "Bit"
	case Byte:
		return "Byte"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case String:
		return "String"
	case Char:
		return "Char"
	case ByteArray:
		return "ByteArray"
	case List:
		return "List"
	case Dictionary:
		return "Dictionary"
	case Structure:
		return "Structure"
	case StructureArray:
		return "StructureArray"
	case Message:
		return "Message"
	case BitArray:
		return "BitArray"
	case Int8Array:
		return "Int8Array"
	case Int16Array:
		return "Int16Array"
	case Int32Array:
		return "Int32Array"
	case Int64Array:
		return "Int64Array"
	case Float64Array:
		return "Float64Array"
	case StringArray:
		return "StringArray"
	case CharArray:
		return "CharArray"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a discriminated union over every shape that can appear in a
// request or response. A Value exclusively owns its payload storage;
// calling any To* method reshapes it in place, reusing the existing slice
// when its capacity already fits the new layout.
type Value struct {
	kind Kind
	size int32
	code int16 // Structure / StructureArray / Message type code

	i   int64   // Bit (0/1), Byte, Int8..Int64
	f   float64 // Float64
	s   string  // String, Char (UTF-8 scalar re-encoded)
	raw []byte  // ByteArray

	children []Value  // List, Dictionary values, Structure fields, Message fields
	keys     []string // Dictionary keys, positional, parallel to children

	rows []Value // StructureArray: each row is itself a List-kind Value

	bits  []bool
	i8s   []int8
	i16s  []int16
	i32s  []int32
	i64s  []int64
	f64s  []float64
	strs  []string // StringArray, CharArray
}

// New returns a Value in the Null state.
func New() *Value {
	return &Value{}
}

// Type returns the variant currently held.
func (v *Value) Type() Kind { return v.kind }

// Size returns the element/field/byte count appropriate to the variant.
func (v *Value) Size() int32 { return v.size }

func precondition(got, want Kind) {
	if got != want {
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want %s", got, want))
	}
}

// reset clears every payload field without discarding backing arrays, so
// subsequent To* calls can reuse their capacity.
func (v *Value) reset(k Kind, size int32, code int16) {
	v.kind = k
	v.size = size
	v.code = code
	v.i = 0
	v.f = 0
	v.s = ""
	v.raw = v.raw[:0]
}

// ---- scalars ----

func (v *Value) ToNull() {
	v.reset(Null, 0, 0)
}

func (v *Value) ToBit(b bool) {
	v.reset(Bit, 1, 0)
	if b {
		v.i = 1
	}
}

func (v *Value) Bit() bool {
	precondition(v.kind, Bit)
	return v.i != 0
}

func (v *Value) ToByte(b int8) {
	v.reset(Byte, 1, 0)
	v.i = int64(b)
}

func (v *Value) ByteVal() int8 {
	precondition(v.kind, Byte)
	return int8(v.i)
}

func (v *Value) ToInt8(x int8) {
	v.reset(Int8, 1, 0)
	v.i = int64(x)
}

func (v *Value) ToInt16(x int16) {
	v.reset(Int16, 1, 0)
	v.i = int64(x)
}

func (v *Value) ToInt32(x int32) {
	v.reset(Int32, 1, 0)
	v.i = int64(x)
}

func (v *Value) ToInt64(x int64) {
	v.reset(Int64, 1, 0)
	v.i = x
}

// Int returns the widened int64 payload of any Int8/16/32/64 variant.
func (v *Value) Int() int64 {
	switch v.kind {
	case Int8, Int16, Int32, Int64:
		return v.i
	default:
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want an Int variant", v.kind))
	}
}

func (v *Value) ToFloat64(x float64) {
	v.reset(Float64, 1, 0)
	v.f = x
}

func (v *Value) Float64Val() float64 {
	precondition(v.kind, Float64)
	return v.f
}

// ToString stores s as the UTF-8 payload; Size is the byte length.
func (v *Value) ToString(s string) {
	v.reset(String, int32(len(s)), 0)
	v.s = s
}

func (v *Value) StringVal() string {
	if v.kind != String && v.kind != Char {
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want String or Char", v.kind))
	}
	return v.s
}

// ToChar stores a single Unicode scalar, re-encoded as UTF-8 on the wire.
// Size is the encoded byte length (1-4), not 1.
func (v *Value) ToChar(r rune) {
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, r)
	v.reset(Char, int32(n), 0)
	v.s = string(buf[:n])
}

func (v *Value) ToByteArray(b []byte) {
	v.reset(ByteArray, int32(len(b)), 0)
	if cap(v.raw) >= len(b) {
		v.raw = v.raw[:len(b)]
	} else {
		v.raw = make([]byte, len(b))
	}
	copy(v.raw, b)
}

func (v *Value) ByteArrayVal() []byte {
	precondition(v.kind, ByteArray)
	return v.raw
}

// ---- List ----

// ToList reshapes v into a List of n elements, each defaulted to Null.
// Existing child storage is reused when its capacity already covers n.
func (v *Value) ToList(n int32) {
	v.reset(List, n, 0)
	v.resizeChildren(int(n))
}

func (v *Value) resizeChildren(n int) {
	if cap(v.children) >= n {
		old := len(v.children)
		v.children = v.children[:n]
		for i := old; i < n; i++ {
			v.children[i] = Value{}
		}
	} else {
		grown := make([]Value, n)
		copy(grown, v.children)
		v.children = grown
	}
}

// Resize changes the element count of a List (or a StructureArray row,
// which is itself List-shaped), zero-initializing new tail slots.
func (v *Value) Resize(n int32) {
	switch v.kind {
	case List:
		v.size = n
		v.resizeChildren(int(n))
	case StringArray, CharArray:
		v.resizeStrs(int(n))
		v.size = n
	default:
		panic(fmt.Sprintf("value: Resize not supported for %s", v.kind))
	}
}

func (v *Value) resizeStrs(n int) {
	if cap(v.strs) >= n {
		old := len(v.strs)
		v.strs = v.strs[:n]
		for i := old; i < n; i++ {
			v.strs[i] = ""
		}
	} else {
		grown := make([]string, n)
		copy(grown, v.strs)
		v.strs = grown
	}
}

// At returns the i-th element of a List.
func (v *Value) At(i int32) *Value {
	precondition(v.kind, List)
	return &v.children[i]
}

// ---- Dictionary ----

// ToDictionary reshapes v into a Dictionary of n entries, keys empty and
// values defaulted to Null until set.
func (v *Value) ToDictionary(n int32) {
	v.reset(Dictionary, n, 0)
	v.resizeChildren(int(n))
	v.resizeKeys(int(n))
}

func (v *Value) resizeKeys(n int) {
	if cap(v.keys) >= n {
		old := len(v.keys)
		v.keys = v.keys[:n]
		for i := old; i < n; i++ {
			v.keys[i] = ""
		}
	} else {
		grown := make([]string, n)
		copy(grown, v.keys)
		v.keys = grown
	}
}

// SetKey assigns the key at position i. Keys must be unique within the
// dictionary; callers are responsible for upholding that invariant.
func (v *Value) SetKey(i int32, name string) {
	precondition(v.kind, Dictionary)
	v.keys[i] = name
}

func (v *Value) Key(i int32) string {
	precondition(v.kind, Dictionary)
	return v.keys[i]
}

// Val returns the value slot at dictionary position i (works for List too,
// as an alias of At, for callers that treat both uniformly).
func (v *Value) Val(i int32) *Value {
	if v.kind != Dictionary && v.kind != List {
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want Dictionary or List", v.kind))
	}
	return &v.children[i]
}

// IndexOfKey returns the position of name in a Dictionary, or -1.
func (v *Value) IndexOfKey(name string) int32 {
	precondition(v.kind, Dictionary)
	for i, k := range v.keys {
		if k == name {
			return int32(i)
		}
	}
	return -1
}

// ---- Structure / Message ----

func (v *Value) ToStructure(code int16, n int32) {
	v.reset(Structure, n, code)
	v.resizeChildren(int(n))
}

func (v *Value) ToMessage(code int16, n int32) {
	v.reset(Message, n, code)
	v.resizeChildren(int(n))
}

// Code returns the structure/message type code (Structure, StructureArray
// or Message variants only).
func (v *Value) Code() int16 {
	switch v.kind {
	case Structure, StructureArray, Message:
		return v.code
	default:
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want Structure/Message", v.kind))
	}
}

// ReinterpretAsMessage reclassifies a decoded Structure as a Message in
// place, without touching its code or fields. Structure and Message share
// an identical wire encoding (marker + size, 1-byte type code, then
// fields); the codec has no way to tell them apart from the bytes alone; it
// is the position on the wire that distinguishes them — a Message is
// always the top-level value of a framed transmission, a Structure is
// always nested inside one. Callers that just unpacked a top-level value
// use this instead of re-decoding into a differently-typed destination.
func (v *Value) ReinterpretAsMessage() {
	precondition(v.kind, Structure)
	v.kind = Message
}

// Field returns the i-th field of a Structure or Message.
func (v *Value) Field(i int32) *Value {
	if v.kind != Structure && v.kind != Message {
		panic(fmt.Sprintf("value: wrong-variant access: have %s, want Structure or Message", v.kind))
	}
	return &v.children[i]
}

// ---- StructureArray ----

// ToStructureArray reshapes v into n rows, each row itself a List-kind
// Value of size 0 until resized via SetRowSize.
func (v *Value) ToStructureArray(code int16, n int32) {
	v.reset(StructureArray, n, code)
	if cap(v.rows) >= int(n) {
		v.rows = v.rows[:n]
	} else {
		grown := make([]Value, n)
		copy(grown, v.rows)
		v.rows = grown
	}
	for i := range v.rows {
		v.rows[i].ToList(0)
	}
}

func (v *Value) RowSize(i int32) int32 {
	precondition(v.kind, StructureArray)
	return v.rows[i].Size()
}

func (v *Value) SetRowSize(i, n int32) {
	precondition(v.kind, StructureArray)
	v.rows[i].Resize(n)
}

func (v *Value) RowAt(row, col int32) *Value {
	precondition(v.kind, StructureArray)
	return v.rows[row].At(col)
}

// ---- typed arrays ----

func (v *Value) ToBitArray(bits []bool) {
	v.reset(BitArray, int32(len(bits)), 0)
	v.bits = append(v.bits[:0], bits...)
}

func (v *Value) BitArrayVal() []bool {
	precondition(v.kind, BitArray)
	return v.bits
}

func (v *Value) ToInt8Array(xs []int8) {
	v.reset(Int8Array, int32(len(xs)), 0)
	v.i8s = append(v.i8s[:0], xs...)
}

func (v *Value) Int8ArrayVal() []int8 {
	precondition(v.kind, Int8Array)
	return v.i8s
}

func (v *Value) ToInt16Array(xs []int16) {
	v.reset(Int16Array, int32(len(xs)), 0)
	v.i16s = append(v.i16s[:0], xs...)
}

func (v *Value) Int16ArrayVal() []int16 {
	precondition(v.kind, Int16Array)
	return v.i16s
}

func (v *Value) ToInt32Array(xs []int32) {
	v.reset(Int32Array, int32(len(xs)), 0)
	v.i32s = append(v.i32s[:0], xs...)
}

func (v *Value) Int32ArrayVal() []int32 {
	precondition(v.kind, Int32Array)
	return v.i32s
}

func (v *Value) ToInt64Array(xs []int64) {
	v.reset(Int64Array, int32(len(xs)), 0)
	v.i64s = append(v.i64s[:0], xs...)
}

func (v *Value) Int64ArrayVal() []int64 {
	precondition(v.kind, Int64Array)
	return v.i64s
}

func (v *Value) ToFloat64Array(xs []float64) {
	v.reset(Float64Array, int32(len(xs)), 0)
	v.f64s = append(v.f64s[:0], xs...)
}

func (v *Value) Float64ArrayVal() []float64 {
	precondition(v.kind, Float64Array)
	return v.f64s
}

func (v *Value) ToStringArray(xs []string) {
	v.reset(StringArray, int32(len(xs)), 0)
	v.strs = append(v.strs[:0], xs...)
}

func (v *Value) StringArrayVal() []string {
	precondition(v.kind, StringArray)
	return v.strs
}

func (v *Value) ToCharArray(xs []rune) {
	v.reset(CharArray, int32(len(xs)), 0)
	strs := make([]string, len(xs))
	for i, r := range xs {
		strs[i] = string(r)
	}
	v.strs = append(v.strs[:0], strs...)
}

func (v *Value) CharArrayVal() []string {
	precondition(v.kind, CharArray)
	return v.strs
}

// Equal reports whether v and other are structurally identical: same
// variant, size, code, and payload bytes, recursively for composites.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.kind != other.kind || v.size != other.size {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bit, Byte, Int8, Int16, Int32, Int64:
		return v.i == other.i
	case Float64:
		return math.Float64bits(v.f) == math.Float64bits(other.f)
	case String, Char:
		return v.s == other.s
	case ByteArray:
		return bytesEqual(v.raw, other.raw)
	case List:
		return valuesEqual(v.children, other.children)
	case Dictionary:
		if len(v.keys) != len(other.keys) {
			return false
		}
		for i := range v.keys {
			if v.keys[i] != other.keys[i] {
				return false
			}
		}
		return valuesEqual(v.children, other.children)
	case Structure, Message:
		return v.code == other.code && valuesEqual(v.children, other.children)
	case StructureArray:
		if v.code != other.code || len(v.rows) != len(other.rows) {
			return false
		}
		for i := range v.rows {
			if !v.rows[i].Equal(&other.rows[i]) {
				return false
			}
		}
		return true
	case BitArray:
		return boolsEqual(v.bits, other.bits)
	case Int8Array:
		return int8sEqual(v.i8s, other.i8s)
	case Int16Array:
		return int16sEqual(v.i16s, other.i16s)
	case Int32Array:
		return int32sEqual(v.i32s, other.i32s)
	case Int64Array:
		return int64sEqual(v.i64s, other.i64s)
	case Float64Array:
		return float64sEqual(v.f64s, other.f64s)
	case StringArray, CharArray:
		return stringsEqual(v.strs, other.strs)
	default:
		return false
	}
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boolsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int8sEqual(a, b []int8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int16sEqual(a, b []int16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int32sEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float64sEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders a compact, wire-independent debug form. Structure and
// Message variants print their raw numeric code; protocolv1.Describe
// renders the named form used by the inspector.
func (v *Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Bit:
		return fmt.Sprintf("%t", v.Bit())
	case Byte, Int8, Int16, Int32, Int64:
		return fmt.Sprintf("%d", v.i)
	case Float64:
		return fmt.Sprintf("%g", v.f)
	case String, Char:
		return fmt.Sprintf("%q", v.s)
	case ByteArray:
		return fmt.Sprintf("bytes[%d]", len(v.raw))
	case List:
		return fmt.Sprintf("list[%d]", v.size)
	case Dictionary:
		return fmt.Sprintf("dict[%d]", v.size)
	case Structure:
		return fmt.Sprintf("struct#%02x(%d)", v.code, v.size)
	case StructureArray:
		return fmt.Sprintf("struct#%02x[](%d)", v.code, v.size)
	case Message:
		return fmt.Sprintf("msg#%02x(%d)", v.code, v.size)
	default:
		return fmt.Sprintf("%s[%d]", v.kind, v.size)
	}
}
