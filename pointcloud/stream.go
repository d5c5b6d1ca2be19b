package pointcloud

import (
	"fmt"

	"github.com/lidarlab/e57/endian"
	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/internal/bitstream"
	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/section"
)

// fieldStream walks the data packets of one compressed vector section
// and feeds the slices of a single prototype field to its extractor.
//
// Every field owns one stream. Streams of the same section parse the
// same packet headers independently, so a fast-draining field can be
// packets ahead of a slow one without shared cursor state.
type fieldStream struct {
	pr *paged.Reader
	ex *bitstream.Extractor

	packetOffset int64 // logical offset of the next packet header
	fieldIndex   int
	fieldCount   int
	lengths      []byte // reused buffer for the per-packet slice length table
	started      bool
}

func newFieldStream(pr *paged.Reader, dataOffset int64, fieldIndex, fieldCount int) (*fieldStream, error) {
	s := &fieldStream{
		pr:           pr,
		ex:           bitstream.NewExtractor(pr),
		packetOffset: dataOffset,
		fieldIndex:   fieldIndex,
		fieldCount:   fieldCount,
		lengths:      make([]byte, 2*fieldCount),
	}

	if err := s.nextPacket(); err != nil {
		return nil, err
	}

	return s, nil
}

// nextPacket parses the data packet header at the cursor and installs
// this field's slice window into the extractor.
//
// The bit cursor continues across packets unless the packet carries the
// compressor restart flag, in which case the stream realigns to byte 0
// at the new slice start.
func (s *fieldStream) nextPacket() error {
	var buf [section.DataPacketHeaderSize]byte
	if err := s.pr.ReadLogical(buf[:], s.packetOffset); err != nil {
		return err
	}

	var header section.DataPacketHeader
	if err := header.Parse(buf[:]); err != nil {
		return fmt.Errorf("packet at logical offset %d: %w", s.packetOffset, err)
	}

	if header.StreamCount != s.fieldCount {
		return fmt.Errorf("%w: packet carries %d byte streams, prototype has %d fields",
			errs.ErrStreamCountMismatch, header.StreamCount, s.fieldCount)
	}

	if err := s.pr.ReadLogical(s.lengths, s.packetOffset+section.DataPacketHeaderSize); err != nil {
		return err
	}

	engine := endian.GetLittleEndianEngine()
	sliceStart := s.packetOffset + section.DataPacketHeaderSize + int64(2*s.fieldCount)
	total := 0
	sliceLength := int64(0)
	for i := 0; i < s.fieldCount; i++ {
		length := int(engine.Uint16(s.lengths[2*i:]))
		if i < s.fieldIndex {
			sliceStart += int64(length)
		}
		if i == s.fieldIndex {
			sliceLength = int64(length)
		}
		total += length
	}

	// The slices fill the packet up to its 4-byte alignment padding.
	used := section.DataPacketHeaderSize + 2*s.fieldCount + total
	if used > header.PacketLength || used <= header.PacketLength-paged.AlignmentSize {
		return fmt.Errorf("%w: %d slice bytes in a packet of %d",
			errs.ErrPacketLayout, total, header.PacketLength)
	}

	s.packetOffset += alignUp(int64(header.PacketLength))

	sliceEnd := sliceStart + sliceLength
	switch {
	case !s.started:
		s.ex.Reset(sliceStart, sliceEnd)
		s.started = true
	case header.CompressorRestart():
		s.ex.Restart(sliceStart, sliceEnd)
	default:
		return s.ex.Append(sliceStart, sliceEnd)
	}

	return nil
}

// alignUp rounds a logical offset delta up to the packet alignment.
func alignUp(n int64) int64 {
	return (n + paged.AlignmentSize - 1) &^ (paged.AlignmentSize - 1)
}
