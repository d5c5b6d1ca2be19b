package section

import (
	"fmt"

	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/errs"
)

// DataPacketHeader represents the 6-byte header at the start of every
// data packet inside a compressed vector section. The header is followed
// by StreamCount uint16 slice lengths and then the per-field byte
// streams in prototype order.
type DataPacketHeader struct {
	// PacketType must be PacketTypeData for decodable packets.
	PacketType uint8
	// Flags carries the compressor restart bit.
	Flags uint8
	// PacketLength is the decoded total packet size in bytes. The wire
	// stores PacketLength-1 as uint16.
	PacketLength int
	// StreamCount is the number of per-field byte streams in the packet.
	StreamCount int
}

// Parse parses a data packet header from a byte slice.
//
// Index packets (type 0) and ignored packets (type 2) are recognized and
// rejected with ErrUnimplementedPacket; any other type but 1 is a format
// violation reported as ErrBadPacketType.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 6 bytes)
//
// Returns:
//   - error: ErrBadHeaderSize, ErrUnimplementedPacket or ErrBadPacketType
func (h *DataPacketHeader) Parse(data []byte) error {
	if len(data) != DataPacketHeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrBadHeaderSize, len(data), DataPacketHeaderSize)
	}

	h.PacketType = data[0]
	switch h.PacketType {
	case PacketTypeData:
	case PacketTypeIndex, PacketTypeIgnored:
		return fmt.Errorf("%w: packet type %d", errs.ErrUnimplementedPacket, h.PacketType)
	default:
		return fmt.Errorf("%w: packet type %d", errs.ErrBadPacketType, h.PacketType)
	}

	engine := endian.GetLittleEndianEngine()
	h.Flags = data[1]
	h.PacketLength = int(engine.Uint16(data[2:4])) + 1
	h.StreamCount = int(engine.Uint16(data[4:6]))

	return nil
}

// Bytes serializes the DataPacketHeader into a byte slice.
func (h *DataPacketHeader) Bytes() []byte {
	b := make([]byte, DataPacketHeaderSize)

	engine := endian.GetLittleEndianEngine()
	b[0] = h.PacketType
	b[1] = h.Flags
	engine.PutUint16(b[2:4], uint16(h.PacketLength-1))
	engine.PutUint16(b[4:6], uint16(h.StreamCount))

	return b
}

// CompressorRestart reports whether the packet's byte streams restart at
// byte alignment instead of continuing the previous packet's bit cursor.
func (h DataPacketHeader) CompressorRestart() bool {
	return h.Flags&PacketFlagCompressorRestart != 0
}
