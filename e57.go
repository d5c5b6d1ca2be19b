// Package e57 reads ASTM E57 3D imaging files.
//
// An E57 file is a paged, CRC-protected container: 1024-byte physical
// pages each end in a big-endian CRC32C over their first 1020 bytes,
// and the concatenated payloads form a logical byte stream. The
// metadata lives in an embedded XML document; the point data lives in
// compressed vector sections holding bit-packed, column-oriented
// records.
//
// # Core Features
//
//   - Paged logical byte view over any io.ReaderAt, memory-mapped by
//     default when opening a file by path
//   - Forward iteration over decoded points with per-field
//     loader/converter/saver pipelines
//   - Bit-accurate skipping of unknown prototype fields
//   - Hash-based point cloud lookup by GUID (64-bit xxHash64)
//   - On-demand CRC validation of every page
//
// # Basic Usage
//
// Opening a file and iterating its first point cloud:
//
//	reader, err := e57.OpenFile("scan.e57")
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//
//	for _, pc := range reader.PointClouds() {
//	    for point, err := range reader.Points(&pc) {
//	        if err != nil {
//	            return err
//	        }
//	        if point.CartesianInvalid != 0 {
//	            continue
//	        }
//	        use(point.Cartesian)
//	    }
//	}
//
// Validating the page checksums of a file:
//
//	if err := reader.ValidateCRC(); err != nil {
//	    // err names the first page with a bad checksum
//	}
//
// # Package Structure
//
// This package provides the user-facing reader. The decode path lives
// in the subpackages: section (fixed binary layouts), record (prototype
// model and descriptors), meta (XML metadata), pointcloud (the decoder
// pipeline and iterator), with the paged view and bit extractor under
// internal.
package e57

import (
	"fmt"
	"io"
	"iter"

	"golang.org/x/exp/mmap"

	"github.com/lidarlab/e57/internal/hash"
	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/meta"
	"github.com/lidarlab/e57/pointcloud"
	"github.com/lidarlab/e57/record"
	"github.com/lidarlab/e57/section"
)

// Point is one decoded record of a point cloud.
type Point = pointcloud.Point

// Reader is the main interface for reading E57 files.
//
// A Reader parses the file header and the XML metadata eagerly; point
// data is only touched when a point cloud is iterated. The Reader
// itself is safe for concurrent iterations over different point clouds
// because every iteration owns its own cursor state.
type Reader struct {
	closer io.Closer
	pr     *paged.Reader

	header      section.FileHeader
	xml         []byte
	root        meta.Root
	pointClouds []record.PointCloud
	guidIndex   map[uint64]int
}

// OpenFile memory-maps the file at path and reads its metadata.
func OpenFile(path string) (*Reader, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r, err := NewReader(f, int64(f.Len()))
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	r.closer = f

	return r, nil
}

// NewReader reads the header and XML metadata from src, which must
// expose size physical bytes of an E57 file.
//
// Returns:
//   - *Reader: Reader with parsed metadata
//   - error: Header validation, paging or XML parsing errors
func NewReader(src io.ReaderAt, size int64) (*Reader, error) {
	var headerBytes [section.FileHeaderSize]byte
	if _, err := src.ReadAt(headerBytes[:], 0); err != nil {
		return nil, fmt.Errorf("read file header: %w", err)
	}

	header, err := section.ParseFileHeader(headerBytes[:])
	if err != nil {
		return nil, err
	}

	pr, err := paged.NewReader(src, size, int64(header.PageSize))
	if err != nil {
		return nil, err
	}

	xml := make([]byte, header.XMLLength)
	if err := pr.ReadLogical(xml, pr.PhysicalToLogical(int64(header.PhysXMLOffset))); err != nil {
		return nil, fmt.Errorf("read XML section: %w", err)
	}

	root, pointClouds, err := meta.Parse(xml)
	if err != nil {
		return nil, err
	}

	guidIndex := make(map[uint64]int, len(pointClouds))
	for i, pc := range pointClouds {
		guidIndex[hash.ID(pc.GUID)] = i
	}

	return &Reader{
		pr:          pr,
		header:      header,
		xml:         xml,
		root:        root,
		pointClouds: pointClouds,
		guidIndex:   guidIndex,
	}, nil
}

// Header returns the validated file header.
func (r *Reader) Header() section.FileHeader {
	return r.header
}

// XML returns a copy of the raw XML document of the file.
func (r *Reader) XML() []byte {
	return append([]byte(nil), r.xml...)
}

// Root returns the parsed e57Root metadata.
func (r *Reader) Root() meta.Root {
	return r.root
}

// PointClouds returns the descriptors of all point clouds in the file,
// in document order.
func (r *Reader) PointClouds() []record.PointCloud {
	return append([]record.PointCloud(nil), r.pointClouds...)
}

// PointCloudByGUID returns the descriptor with the given GUID.
func (r *Reader) PointCloudByGUID(guid string) (record.PointCloud, bool) {
	i, ok := r.guidIndex[hash.ID(guid)]
	if !ok || r.pointClouds[i].GUID != guid {
		return record.PointCloud{}, false
	}

	return r.pointClouds[i], true
}

// NewPointCloudReader creates an iterator over the points of pc.
func (r *Reader) NewPointCloudReader(pc *record.PointCloud) (*pointcloud.Reader, error) {
	return pointcloud.NewReader(r.pr, pc)
}

// Points returns an iterator over the points of pc. Construction errors
// are yielded as the first and only element.
func (r *Reader) Points(pc *record.PointCloud) iter.Seq2[Point, error] {
	return func(yield func(Point, error) bool) {
		reader, err := pointcloud.NewReader(r.pr, pc)
		if err != nil {
			yield(Point{}, err)

			return
		}

		for p, err := range reader.Points() {
			if !yield(p, err) {
				return
			}
		}
	}
}

// Blob copies the logical bytes of a binary blob section into w.
//
// Returns:
//   - int64: Number of bytes written
//   - error: ErrBadSectionID when the descriptor does not point at a
//     blob section, or read/write errors
func (r *Reader) Blob(b *record.Blob, w io.Writer) (int64, error) {
	logical := r.pr.PhysicalToLogical(int64(b.FileOffset))

	var headerBytes [section.BlobHeaderSize]byte
	if err := r.pr.ReadLogical(headerBytes[:], logical); err != nil {
		return 0, err
	}

	var header section.BlobHeader
	if err := header.Parse(headerBytes[:]); err != nil {
		return 0, err
	}

	buf := make([]byte, 4096)
	offset := logical + section.BlobHeaderSize
	remaining := int64(b.Length)
	var written int64
	for remaining > 0 {
		n := int64(len(buf))
		if n > remaining {
			n = remaining
		}

		if err := r.pr.ReadLogical(buf[:n], offset); err != nil {
			return written, err
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return written, fmt.Errorf("write blob data: %w", err)
		}

		offset += n
		remaining -= n
		written += n
	}

	return written, nil
}

// ValidateCRC scans the whole file and verifies every page checksum.
// It reports the first mismatching page and does not affect any
// iterator state.
func (r *Reader) ValidateCRC() error {
	return r.pr.ValidatePages()
}

// Close releases the underlying mapping when the Reader was created
// with OpenFile. Readers over caller-provided storage close nothing.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}

	return nil
}
