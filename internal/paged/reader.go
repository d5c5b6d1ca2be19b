// Package paged maps logical byte offsets onto the physical pages of an
// E57 file.
//
// An E57 file is a sequence of fixed-size pages. Each page holds payload
// bytes followed by a 4-byte big-endian CRC32C (Castagnoli) checksum
// over that payload. The logical byte stream is the concatenation of all
// page payloads; readers address it with logical offsets and never see
// the checksum tails.
//
// The Reader works on any io.ReaderAt, so the backing storage can be a
// read-only memory mapping or a plain file handle.
package paged

import (
	"fmt"
	"hash/crc32"
	"io"

	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/errs"
)

const (
	// ChecksumSize is the per-page CRC32C tail in bytes.
	ChecksumSize = 4
	// MaxPageSize bounds the page size accepted from a file header.
	MaxPageSize = 1 << 20
	// AlignmentSize is the packet alignment inside compressed vector sections.
	AlignmentSize = 4
)

// castagnoli is the CRC32C table used for page checksums, polynomial 0x1EDC6F41.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// PageChecksum computes the CRC32C of a page payload.
func PageChecksum(payload []byte) uint32 {
	return crc32.Checksum(payload, castagnoli)
}

// Reader exposes the logical byte stream of a paged E57 file.
//
// Note: The Reader itself is stateless and safe for concurrent reads,
// but the decoders built on top of it own mutable cursor state and must
// not be shared between goroutines.
type Reader struct {
	r        io.ReaderAt
	physSize int64
	pageSize int64
	payload  int64
}

// NewReader creates a Reader over physSize bytes of physical storage
// split into pages of pageSize bytes.
//
// Returns:
//   - *Reader: New reader instance
//   - error: ErrBadPageSize when the page size is out of range, or
//     ErrBadFileSize when the physical size is zero or not a multiple of
//     the page size
func NewReader(r io.ReaderAt, physSize, pageSize int64) (*Reader, error) {
	if pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: %d is bigger than the maximum of %d bytes", errs.ErrBadPageSize, pageSize, MaxPageSize)
	}
	if pageSize <= ChecksumSize {
		return nil, fmt.Errorf("%w: %d leaves no payload after the %d checksum bytes", errs.ErrBadPageSize, pageSize, ChecksumSize)
	}
	if physSize == 0 || physSize%pageSize != 0 {
		return nil, fmt.Errorf("%w: physical size %d, page size %d", errs.ErrBadFileSize, physSize, pageSize)
	}

	return &Reader{
		r:        r,
		physSize: physSize,
		pageSize: pageSize,
		payload:  pageSize - ChecksumSize,
	}, nil
}

// LogicalSize returns the total number of logical bytes in the file.
func (r *Reader) LogicalSize() int64 {
	return (r.physSize / r.pageSize) * r.payload
}

// LogicalToPhysical maps a logical offset to its physical offset by
// inserting a checksum skip for every full page before it.
func (r *Reader) LogicalToPhysical(logical int64) int64 {
	return logical + (logical/r.payload)*ChecksumSize
}

// PhysicalToLogical maps a physical offset inside a page payload back to
// its logical offset.
func (r *Reader) PhysicalToLogical(physical int64) int64 {
	return physical - (physical/r.pageSize)*ChecksumSize
}

// ReadLogical fills dst with the logical bytes starting at the given
// offset, traversing page boundaries by skipping each checksum tail.
//
// A span of len(dst) bytes either arrives completely or fails: partial
// reads are surfaced as ErrShortRead.
func (r *Reader) ReadLogical(dst []byte, logical int64) error {
	if logical < 0 || logical+int64(len(dst)) > r.LogicalSize() {
		return fmt.Errorf("%w: logical span [%d, %d) exceeds %d logical bytes",
			errs.ErrShortRead, logical, logical+int64(len(dst)), r.LogicalSize())
	}

	for len(dst) > 0 {
		n := r.payload - logical%r.payload
		if n > int64(len(dst)) {
			n = int64(len(dst))
		}

		phys := r.LogicalToPhysical(logical)
		if _, err := r.r.ReadAt(dst[:n], phys); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: physical offset %d", errs.ErrShortRead, phys)
			}

			return fmt.Errorf("read page payload at %d: %w", phys, err)
		}

		dst = dst[n:]
		logical += n
	}

	return nil
}

// ValidatePages scans the whole file page by page and verifies every
// checksum. It reports the first mismatching page.
//
// Returns:
//   - error: ErrChecksumMismatch naming the first bad page index, or an
//     I/O error from the underlying reader
func (r *Reader) ValidatePages() error {
	buf := make([]byte, r.pageSize)
	engine := endian.GetBigEndianEngine()

	pages := r.physSize / r.pageSize
	for page := int64(0); page < pages; page++ {
		if _, err := r.r.ReadAt(buf, page*r.pageSize); err != nil {
			return fmt.Errorf("read page %d: %w", page, err)
		}

		stored := engine.Uint32(buf[r.payload:])
		computed := PageChecksum(buf[:r.payload])
		if computed != stored {
			return fmt.Errorf("%w: page %d stores 0x%08X, computed 0x%08X",
				errs.ErrChecksumMismatch, page, stored, computed)
		}
	}

	return nil
}
