package bitstream_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/internal/bitstream"
	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/internal/pagetest"
	"github.com/lidarlab/e57/section"
)

func pagedReader(t *testing.T, logical []byte) *paged.Reader {
	t.Helper()

	phys := pagetest.Build(logical)
	pr, err := paged.NewReader(bytes.NewReader(phys), int64(len(phys)), section.PageSize)
	require.NoError(t, err)

	return pr
}

func TestExtractInt_RoundTrip(t *testing.T) {
	fields := []struct {
		width uint
		value uint64
	}{
		{1, 1}, {1, 0}, {3, 5}, {7, 100}, {8, 255}, {12, 0xABC},
		{13, 7777}, {24, 0xDEAD01}, {31, 1<<31 - 1}, {40, 0xC0FFEE1234},
		{56, 1<<56 - 1}, {5, 17}, {2, 3},
	}

	var packer pagetest.BitPacker
	for _, f := range fields {
		packer.Write(f.value, f.width)
	}
	stream := packer.Bytes()

	x := bitstream.NewExtractor(pagedReader(t, stream))
	x.Reset(0, int64(len(stream)))

	for i, f := range fields {
		v, ok, err := x.ExtractInt(f.width)
		require.NoError(t, err, "field %d", i)
		require.True(t, ok, "field %d", i)
		require.Equal(t, f.value, v, "field %d width %d", i, f.width)
	}
}

func TestExtractInt_Aligned64(t *testing.T) {
	values := []uint64{0, 1, math.MaxUint64, 0x0123456789ABCDEF}
	stream := make([]byte, 0, 8*len(values))
	for _, v := range values {
		stream = binary.LittleEndian.AppendUint64(stream, v)
	}

	x := bitstream.NewExtractor(pagedReader(t, stream))
	x.Reset(0, int64(len(stream)))

	for _, want := range values {
		v, ok, err := x.ExtractInt(64)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestExtractInt_Misaligned64(t *testing.T) {
	stream := []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	x := bitstream.NewExtractor(pagedReader(t, stream))
	x.Reset(0, int64(len(stream)))

	_, ok, err := x.ExtractInt(3)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = x.ExtractInt(64)
	require.ErrorIs(t, err, errs.ErrMisalignedValue)
}

func TestExtractInt_UnsupportedWidths(t *testing.T) {
	x := bitstream.NewExtractor(pagedReader(t, make([]byte, 16)))
	x.Reset(0, 16)

	for _, width := range []uint{0, 57, 60, 63, 65} {
		_, _, err := x.ExtractInt(width)
		require.ErrorIs(t, err, errs.ErrUnsupportedBitWidth, "width %d", width)
	}
}

func TestExtractInt_WindowDrained(t *testing.T) {
	stream := []byte{0xFF, 0xFF}
	x := bitstream.NewExtractor(pagedReader(t, stream))
	x.Reset(0, 2)

	_, ok, err := x.ExtractInt(12)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(4), x.Available())

	_, ok, err = x.ExtractInt(12)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAppend_ValueStraddlesWindows(t *testing.T) {
	// Five 12-bit values make 60 bits. The first window holds 4 bytes,
	// so the third value straddles the window boundary; the second
	// window sits at a non-adjacent logical offset.
	values := []uint64{0x123, 0xFFF, 0xA5A, 0x001, 0x7C3}
	var packer pagetest.BitPacker
	for _, v := range values {
		packer.Write(v, 12)
	}
	stream := packer.Bytes()
	require.Len(t, stream, 8)

	logical := make([]byte, 64)
	copy(logical[0:4], stream[0:4])
	copy(logical[32:36], stream[4:8])

	x := bitstream.NewExtractor(pagedReader(t, logical))
	x.Reset(0, 4)

	got := make([]uint64, 0, len(values))
	for range values {
		v, ok, err := x.ExtractInt(12)
		require.NoError(t, err)
		if !ok {
			require.NoError(t, x.Append(32, 36))
			v, ok, err = x.ExtractInt(12)
			require.NoError(t, err)
			require.True(t, ok)
		}
		got = append(got, v)
	}

	require.Equal(t, values, got)
}

func TestRestart_RealignsCursor(t *testing.T) {
	// First window: one 3-bit value, rest of the byte is padding that a
	// compressor restart must discard.
	var first pagetest.BitPacker
	first.Write(0b101, 3)

	var second pagetest.BitPacker
	second.Write(0x5A, 8)

	logical := make([]byte, 16)
	copy(logical[0:1], first.Bytes())
	copy(logical[8:9], second.Bytes())

	x := bitstream.NewExtractor(pagedReader(t, logical))
	x.Reset(0, 1)

	v, ok, err := x.ExtractInt(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0b101), v)

	x.Restart(8, 9)
	require.Equal(t, int64(8), x.Available())

	v, ok, err = x.ExtractInt(8)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0x5A), v)
}

func TestExtractFloats(t *testing.T) {
	singles := []float32{0, 1.5, -2.25, math.Pi}
	doubles := []float64{0, -1.125, 12345.6789, math.E}

	stream := make([]byte, 0)
	for _, v := range singles {
		stream = binary.LittleEndian.AppendUint32(stream, math.Float32bits(v))
	}
	for _, v := range doubles {
		stream = binary.LittleEndian.AppendUint64(stream, math.Float64bits(v))
	}

	x := bitstream.NewExtractor(pagedReader(t, stream))
	x.Reset(0, int64(len(stream)))

	for _, want := range singles {
		v, ok, err := x.ExtractFloat32()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	for _, want := range doubles {
		v, ok, err := x.ExtractFloat64()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, want, v)
	}

	_, ok, err := x.ExtractFloat64()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExtractFloat_StraddlesWindows(t *testing.T) {
	want := 3.14159265358979
	stream := binary.LittleEndian.AppendUint64(nil, math.Float64bits(want))

	logical := make([]byte, 32)
	copy(logical[0:3], stream[0:3])
	copy(logical[16:21], stream[3:8])

	x := bitstream.NewExtractor(pagedReader(t, logical))
	x.Reset(0, 3)

	_, ok, err := x.ExtractFloat64()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, x.Append(16, 21))
	v, ok, err := x.ExtractFloat64()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, v)
}

func TestExtract_CrossesPageBoundary(t *testing.T) {
	// A 16-bit value spanning logical offsets 1019 and 1020 crosses the
	// physical checksum tail of page 0.
	var packer pagetest.BitPacker
	packer.Write(0xBEEF, 16)

	logical := make([]byte, 2*1020)
	copy(logical[1019:1021], packer.Bytes())

	x := bitstream.NewExtractor(pagedReader(t, logical))
	x.Reset(1019, 1021)

	v, ok, err := x.ExtractInt(16)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0xBEEF), v)
}
