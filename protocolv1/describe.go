package protocolv1

import (
	"fmt"
	"strings"

	"github.com/mickamy/boltcore/value"
)

// Describe renders v using message/structure names from this version's
// tables instead of raw numeric codes. Used by the inspector to show
// traffic in a readable form.
func Describe(v *value.Value) string {
	var b strings.Builder
	describe(&b, v)
	return b.String()
}

func describe(b *strings.Builder, v *value.Value) {
	switch v.Type() {
	case value.Message:
		fmt.Fprintf(b, "%s(", MessageName(v.Code()))
		describeFields(b, v)
		b.WriteByte(')')
	case value.Structure:
		fmt.Fprintf(b, "%s(", StructureName(v.Code()))
		describeFields(b, v)
		b.WriteByte(')')
	case value.List:
		b.WriteByte('[')
		for i := int32(0); i < v.Size(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			describe(b, v.At(i))
		}
		b.WriteByte(']')
	case value.Dictionary:
		b.WriteByte('{')
		for i := int32(0); i < v.Size(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", v.Key(i))
			describe(b, v.Val(i))
		}
		b.WriteByte('}')
	default:
		b.WriteString(v.String())
	}
}

func describeFields(b *strings.Builder, v *value.Value) {
	for i := int32(0); i < v.Size(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		describe(b, v.Field(i))
	}
}
