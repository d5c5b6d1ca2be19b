// Package section defines the fixed-size binary structures of the E57
// container: the 48-byte file header, the compressed vector and blob
// section headers inside the logical stream, and the data packet header.
//
// Each structure offers Parse to decode a byte slice and Bytes to
// serialize it back, so tests and tooling can build fixtures without a
// separate writer.
package section

import (
	"fmt"

	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/errs"
)

// FileHeader represents the fixed structure at the start of an E57 file.
//
// All offsets and lengths are physical except XMLLength, which counts
// logical bytes of the XML payload.
type FileHeader struct {
	// Signature must always be "ASTM-E57".
	Signature [8]byte
	// Major is the major version number of the file format.
	Major uint32 // byte offset 8-11
	// Minor is the minor version number of the file format.
	Minor uint32 // byte offset 12-15
	// PhysLength is the physical length of the file in bytes.
	PhysLength uint64 // byte offset 16-23
	// PhysXMLOffset is the physical offset of the embedded XML document.
	PhysXMLOffset uint64 // byte offset 24-31
	// XMLLength is the logical byte count of the XML document.
	XMLLength uint64 // byte offset 32-39
	// PageSize is the physical page size, always 1024.
	PageSize uint64 // byte offset 40-47
}

// Parse parses the file header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 48 bytes)
//
// Returns:
//   - error: ErrBadHeaderSize, ErrBadSignature, ErrBadVersion or
//     ErrBadPageSize when validation fails
func (h *FileHeader) Parse(data []byte) error {
	if len(data) != FileHeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrBadHeaderSize, len(data), FileHeaderSize)
	}

	copy(h.Signature[:], data[0:8])

	engine := endian.GetLittleEndianEngine()
	h.Major = engine.Uint32(data[8:12])
	h.Minor = engine.Uint32(data[12:16])
	h.PhysLength = engine.Uint64(data[16:24])
	h.PhysXMLOffset = engine.Uint64(data[24:32])
	h.XMLLength = engine.Uint64(data[32:40])
	h.PageSize = engine.Uint64(data[40:48])

	return h.validate()
}

func (h *FileHeader) validate() error {
	if string(h.Signature[:]) != Signature {
		return fmt.Errorf("%w: got %q", errs.ErrBadSignature, h.Signature)
	}
	if h.Major != MajorVersion || h.Minor != MinorVersion {
		return fmt.Errorf("%w: got %d.%d, want %d.%d", errs.ErrBadVersion, h.Major, h.Minor, MajorVersion, MinorVersion)
	}
	if h.PageSize != PageSize {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrBadPageSize, h.PageSize, PageSize)
	}

	return nil
}

// Bytes serializes the FileHeader into a byte slice.
func (h *FileHeader) Bytes() []byte {
	b := make([]byte, FileHeaderSize)

	copy(b[0:8], h.Signature[:])

	engine := endian.GetLittleEndianEngine()
	engine.PutUint32(b[8:12], h.Major)
	engine.PutUint32(b[12:16], h.Minor)
	engine.PutUint64(b[16:24], h.PhysLength)
	engine.PutUint64(b[24:32], h.PhysXMLOffset)
	engine.PutUint64(b[32:40], h.XMLLength)
	engine.PutUint64(b[40:48], h.PageSize)

	return b
}

// ParseFileHeader parses a FileHeader from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be at least 48 bytes)
//
// Returns:
//   - FileHeader: Parsed header struct
//   - error: ErrBadHeaderSize or validation errors
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, fmt.Errorf("%w: got %d bytes, want %d", errs.ErrBadHeaderSize, len(data), FileHeaderSize)
	}

	h := FileHeader{}
	if err := h.Parse(data[:FileHeaderSize]); err != nil {
		return FileHeader{}, err
	}

	return h, nil
}
