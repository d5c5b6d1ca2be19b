// Package pagetest builds synthetic paged E57 images for tests.
//
// The library deliberately ships no writer, so tests assemble the
// physical images themselves: a bit packer for the little-endian field
// streams, packet and section builders for the compressed vector
// layout, and Build to page a logical stream into payload+CRC pages.
package pagetest

import (
	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/section"
)

// Build pages the given logical stream into a physical image: 1020-byte
// payloads each followed by their big-endian CRC32C, the final payload
// zero-padded.
func Build(logical []byte) []byte {
	payload := section.PageSize - paged.ChecksumSize
	engine := endian.GetBigEndianEngine()

	pages := (len(logical) + payload - 1) / payload
	if pages == 0 {
		pages = 1
	}

	phys := make([]byte, 0, pages*section.PageSize)
	for page := 0; page < pages; page++ {
		chunk := make([]byte, payload)
		start := page * payload
		if start < len(logical) {
			copy(chunk, logical[start:])
		}

		phys = append(phys, chunk...)
		phys = engine.AppendUint32(phys, paged.PageChecksum(chunk))
	}

	return phys
}

// LogicalToPhysical maps a logical offset to its physical offset for
// the standard 1024-byte page layout.
func LogicalToPhysical(logical int64) int64 {
	return logical + logical/(section.PageSize-paged.ChecksumSize)*paged.ChecksumSize
}

// BitPacker packs values into a little-endian bit stream, least
// significant bit first, exactly as compressed vector byte streams
// store them.
type BitPacker struct {
	buf []byte
	bit uint
}

// Write appends the low width bits of v to the stream.
func (p *BitPacker) Write(v uint64, width uint) {
	for i := uint(0); i < width; i++ {
		if p.bit == 0 {
			p.buf = append(p.buf, 0)
		}
		if v>>i&1 == 1 {
			p.buf[len(p.buf)-1] |= 1 << p.bit
		}
		p.bit = (p.bit + 1) % 8
	}
}

// Bytes returns the packed stream, the final byte zero-padded.
func (p *BitPacker) Bytes() []byte {
	return p.buf
}

// DataPacket assembles one data packet from per-field slices in
// prototype order, zero-padded to the 4-byte packet alignment.
func DataPacket(flags byte, slices ...[]byte) []byte {
	engine := endian.GetLittleEndianEngine()

	length := section.DataPacketHeaderSize + 2*len(slices)
	for _, s := range slices {
		length += len(s)
	}
	padded := (length + paged.AlignmentSize - 1) &^ (paged.AlignmentSize - 1)

	header := section.DataPacketHeader{
		PacketType:   section.PacketTypeData,
		Flags:        flags,
		PacketLength: padded,
		StreamCount:  len(slices),
	}

	out := header.Bytes()
	for _, s := range slices {
		out = engine.AppendUint16(out, uint16(len(s)))
	}
	for _, s := range slices {
		out = append(out, s...)
	}

	return append(out, make([]byte, padded-length)...)
}

// CompressedVectorSection assembles a section image to be placed at the
// given logical offset: the 32-byte header followed by the packets.
func CompressedVectorSection(sectionLogical int64, packets ...[]byte) []byte {
	var body []byte
	for _, p := range packets {
		body = append(body, p...)
	}

	header := section.CompressedVectorHeader{
		SectionID:     section.CompressedVectorSectionID,
		SectionLength: uint64(section.CompressedVectorHeaderSize + len(body)),
		DataOffset:    uint64(LogicalToPhysical(sectionLogical + section.CompressedVectorHeaderSize)),
		IndexOffset:   uint64(LogicalToPhysical(sectionLogical + section.CompressedVectorHeaderSize + int64(len(body)))),
	}

	return append(header.Bytes(), body...)
}
