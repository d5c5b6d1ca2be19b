package section

import (
	"fmt"

	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/errs"
)

// CompressedVectorHeader represents the 32-byte header at the start of a
// compressed vector section inside the logical stream.
type CompressedVectorHeader struct {
	// SectionID must always be 1 for compressed vector sections.
	SectionID uint8 // byte offset 0, bytes 1-7 are reserved
	// SectionLength is the total section length in bytes, a multiple of 4.
	SectionLength uint64 // byte offset 8-15
	// DataOffset is the physical offset of the first data packet.
	DataOffset uint64 // byte offset 16-23
	// IndexOffset is the physical offset of the first index packet.
	IndexOffset uint64 // byte offset 24-31
}

// Parse parses the compressed vector section header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 32 bytes)
//
// Returns:
//   - error: ErrBadHeaderSize, ErrBadSectionID or ErrBadSectionLength
func (h *CompressedVectorHeader) Parse(data []byte) error {
	if len(data) != CompressedVectorHeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrBadHeaderSize, len(data), CompressedVectorHeaderSize)
	}

	engine := endian.GetLittleEndianEngine()
	h.SectionID = data[0]
	h.SectionLength = engine.Uint64(data[8:16])
	h.DataOffset = engine.Uint64(data[16:24])
	h.IndexOffset = engine.Uint64(data[24:32])

	if h.SectionID != CompressedVectorSectionID {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrBadSectionID, h.SectionID, CompressedVectorSectionID)
	}
	if h.SectionLength%4 != 0 {
		return fmt.Errorf("%w: got %d", errs.ErrBadSectionLength, h.SectionLength)
	}

	return nil
}

// Bytes serializes the CompressedVectorHeader into a byte slice.
func (h *CompressedVectorHeader) Bytes() []byte {
	b := make([]byte, CompressedVectorHeaderSize)

	engine := endian.GetLittleEndianEngine()
	b[0] = h.SectionID
	engine.PutUint64(b[8:16], h.SectionLength)
	engine.PutUint64(b[16:24], h.DataOffset)
	engine.PutUint64(b[24:32], h.IndexOffset)

	return b
}

// BlobHeader represents the 16-byte header at the start of a blob
// section inside the logical stream.
type BlobHeader struct {
	// SectionID must always be 0 for blob sections.
	SectionID uint8 // byte offset 0, bytes 1-7 are reserved
	// SectionLength is the total section length in bytes.
	SectionLength uint64 // byte offset 8-15
}

// Parse parses the blob section header from a byte slice.
func (h *BlobHeader) Parse(data []byte) error {
	if len(data) != BlobHeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrBadHeaderSize, len(data), BlobHeaderSize)
	}

	h.SectionID = data[0]
	h.SectionLength = endian.GetLittleEndianEngine().Uint64(data[8:16])

	if h.SectionID != BlobSectionID {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrBadSectionID, h.SectionID, BlobSectionID)
	}

	return nil
}

// Bytes serializes the BlobHeader into a byte slice.
func (h *BlobHeader) Bytes() []byte {
	b := make([]byte, BlobHeaderSize)

	b[0] = h.SectionID
	endian.GetLittleEndianEngine().PutUint64(b[8:16], h.SectionLength)

	return b
}
