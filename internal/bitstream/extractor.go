// Package bitstream extracts bit-packed values from the logical byte
// stream of a paged E57 file.
//
// Compressed vector sections store each point attribute as a dense
// little-endian bit stream: a value of N bits occupies the next N
// unconsumed bits, least significant bit first, with no padding between
// values. The stream of one field is split across the field's slices in
// consecutive data packets; the Extractor stitches those slices together
// so a value straddling a packet boundary decodes as if the stream were
// contiguous.
package bitstream

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/internal/paged"
)

// Extractor pulls integers of arbitrary bit width and IEEE floats from a
// window of the logical byte stream, keeping a sub-byte cursor.
//
// A window covers one field slice of one data packet. The caller drives
// replenishment: when an extraction reports ok=false the window is
// drained, and the caller installs the next slice with Append (bit
// cursor continues) or Restart (cursor realigns after a compressor
// restart).
//
// The scratch buffer bounds every extraction: widths of 1-56 bits plus a
// sub-byte offset need at most 8 window bytes, and carried prefix bytes
// from a drained window add at most one more. Cross-page spans are
// always copied into scratch, never referenced in place, so the backing
// reader is free to be a memory mapping or a seeking stream.
type Extractor struct {
	pr      *paged.Reader
	cursor  int64 // logical offset of the next unread window byte
	end     int64 // logical end of the current window
	bit     uint  // consumed bits of the front byte, 0..7
	carry   int   // carried prefix bytes held in scratch
	scratch [9]byte
}

// NewExtractor creates an Extractor without a window. The caller must
// install one with Reset before extracting.
func NewExtractor(pr *paged.Reader) *Extractor {
	return &Extractor{pr: pr}
}

// Reset installs the first window of a field stream. The bit cursor
// starts byte aligned and any carried bytes are dropped.
func (x *Extractor) Reset(start, end int64) {
	x.cursor = start
	x.end = end
	x.bit = 0
	x.carry = 0
}

// Restart installs the window of a compressor-restart packet: the stream
// realigns to byte 0 at the new slice start.
func (x *Extractor) Restart(start, end int64) {
	x.Reset(start, end)
}

// Append installs the next window of a continuing stream. Unread bytes
// of the drained window are carried into scratch so a value straddling
// the packet boundary decodes transparently.
func (x *Extractor) Append(start, end int64) error {
	rem := int(x.end - x.cursor)
	if rem > 0 {
		if x.carry+rem > len(x.scratch) {
			return fmt.Errorf("%w: %d carried bytes across packet boundaries", errs.ErrShortRead, x.carry+rem)
		}
		if err := x.pr.ReadLogical(x.scratch[x.carry:x.carry+rem], x.cursor); err != nil {
			return err
		}
		x.carry += rem
	}

	x.cursor = start
	x.end = end

	return nil
}

// Available reports the number of unconsumed bits before the current
// window is drained.
func (x *Extractor) Available() int64 {
	return (int64(x.carry)+x.end-x.cursor)*8 - int64(x.bit)
}

// fill copies n stream bytes into scratch: the carried prefix first,
// then window bytes from the cursor. The last byte may belong partly to
// the next value; it is peeked, not consumed.
func (x *Extractor) fill(n int) error {
	if n <= x.carry {
		return nil
	}

	return x.pr.ReadLogical(x.scratch[x.carry:n], x.cursor)
}

// consume advances the stream by n fully used bytes, draining the
// carried prefix before moving the window cursor.
func (x *Extractor) consume(n int) {
	if n >= x.carry {
		x.cursor += int64(n - x.carry)
		x.carry = 0

		return
	}

	copy(x.scratch[:], x.scratch[n:x.carry])
	x.carry -= n
}

// ExtractInt reads an unsigned integer of the given bit width in
// little-endian bit order.
//
// Widths 1-56 keep the sub-byte cursor; width 64 takes an aligned fast
// path and requires the cursor to be on a byte boundary, which the
// format guarantees by construction for 64-bit fields. Widths 57-63 are
// rejected with ErrUnsupportedBitWidth because they could span 9 bytes
// before alignment, which does not fit the uint64 used for decoding.
//
// Returns:
//   - uint64: The extracted value, right aligned
//   - bool: false when the window has fewer than width bits left, which
//     signals the caller to append the next packet slice
//   - error: ErrMisalignedValue, ErrUnsupportedBitWidth or a read error
func (x *Extractor) ExtractInt(width uint) (uint64, bool, error) {
	if width == 64 {
		if x.bit != 0 {
			return 0, false, fmt.Errorf("%w: 64 bit integer at sub-byte offset %d", errs.ErrMisalignedValue, x.bit)
		}
		if x.Available() < 64 {
			return 0, false, nil
		}
		if err := x.fill(8); err != nil {
			return 0, false, err
		}

		v := binary.LittleEndian.Uint64(x.scratch[:8])
		x.consume(8)

		return v, true, nil
	}

	if width == 0 || width > 56 {
		return 0, false, fmt.Errorf("%w: integers with %d bits", errs.ErrUnsupportedBitWidth, width)
	}
	if x.Available() < int64(width) {
		return 0, false, nil
	}

	total := x.bit + width
	window := int((total + 7) / 8)
	if err := x.fill(window); err != nil {
		return 0, false, err
	}

	var raw [8]byte
	copy(raw[:], x.scratch[:window])
	v := binary.LittleEndian.Uint64(raw[:]) >> x.bit & (1<<width - 1)

	x.consume(int(total / 8))
	x.bit = total % 8

	return v, true, nil
}

// ExtractFloat32 reads a little-endian IEEE 754 single precision value.
// The cursor must be byte aligned; float fields never share a byte
// stream with bit-packed integers, so alignment holds by construction.
func (x *Extractor) ExtractFloat32() (float32, bool, error) {
	if x.bit != 0 {
		return 0, false, fmt.Errorf("%w: float at sub-byte offset %d", errs.ErrMisalignedValue, x.bit)
	}
	if x.Available() < 32 {
		return 0, false, nil
	}
	if err := x.fill(4); err != nil {
		return 0, false, err
	}

	v := math.Float32frombits(binary.LittleEndian.Uint32(x.scratch[:4]))
	x.consume(4)

	return v, true, nil
}

// ExtractFloat64 reads a little-endian IEEE 754 double precision value.
// The cursor must be byte aligned.
func (x *Extractor) ExtractFloat64() (float64, bool, error) {
	if x.bit != 0 {
		return 0, false, fmt.Errorf("%w: float at sub-byte offset %d", errs.ErrMisalignedValue, x.bit)
	}
	if x.Available() < 64 {
		return 0, false, nil
	}
	if err := x.fill(8); err != nil {
		return 0, false, err
	}

	v := math.Float64frombits(binary.LittleEndian.Uint64(x.scratch[:8]))
	x.consume(8)

	return v, true, nil
}
