// Package packstream implements the version-parameterised packed binary
// codec: markers plus payload, as described in the wire protocol's
// "PackStream" conventions. Version 1 is the only table currently defined.
package packstream

// Version selects which marker table Encode/Decode use.
type Version int

// V1 is the only protocol version with a defined marker table.
const V1 Version = 1

// Markers for protocol version 1.
const (
	markerTinyIntPosMin = 0x00
	markerTinyIntPosMax = 0x7F
	markerTinyIntNegMin = 0xF0
	markerTinyIntNegMax = 0xFF

	markerNull  = 0xC0
	markerFalse = 0xC2
	markerTrue  = 0xC3
	markerFloat = 0xC1

	markerInt8  = 0xC8
	markerInt16 = 0xC9
	markerInt32 = 0xCA
	markerInt64 = 0xCB

	markerBytes8  = 0xCC
	markerBytes16 = 0xCD
	markerBytes32 = 0xCE

	markerTinyStringMin = 0x80
	markerTinyStringMax = 0x8F
	markerString8       = 0xD0
	markerString16      = 0xD1
	markerString32      = 0xD2

	markerTinyListMin = 0x90
	markerTinyListMax = 0x9F
	markerList8       = 0xD4
	markerList16      = 0xD5
	markerList32      = 0xD6

	markerTinyDictMin = 0xA0
	markerTinyDictMax = 0xAF
	markerDict8       = 0xD8
	markerDict16      = 0xD9
	markerDict32      = 0xDA

	markerTinyStructMin = 0xB0
	markerTinyStructMax = 0xBF
	markerStruct8       = 0xDC
	markerStruct16      = 0xDD
)

const tinyMax = 0x0F // max n representable in a 4-bit tiny-size nibble
