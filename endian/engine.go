// Package endian provides the byte order engines used to decode E57
// binary structures.
//
// Every multi-byte value on the E57 wire is little-endian, with a single
// exception: the 4-byte CRC tail of each page is big-endian. The
// EndianEngine interface combines ByteOrder and AppendByteOrder from
// encoding/binary so parsers can read and serialize through one value.
//
// # Basic Usage
//
//	engine := endian.GetLittleEndianEngine()
//	length := engine.Uint64(data[8:16])
//
// # Thread Safety
//
// The returned EndianEngine instances are immutable and stateless, and
// safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian
// from the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the engine for the E57 wire format.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the engine for page checksum tails.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
