package pointcloud_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/internal/pagetest"
	"github.com/lidarlab/e57/pointcloud"
	"github.com/lidarlab/e57/record"
	"github.com/lidarlab/e57/section"
)

// sectionFixture pages a compressed vector section placed at logical
// offset 0 and returns the paged reader plus a descriptor template.
func sectionFixture(t *testing.T, records uint64, prototype []record.Record, packets ...[]byte) (*paged.Reader, *record.PointCloud) {
	t.Helper()

	logical := pagetest.CompressedVectorSection(0, packets...)
	phys := pagetest.Build(logical)

	pr, err := paged.NewReader(bytes.NewReader(phys), int64(len(phys)), section.PageSize)
	require.NoError(t, err)

	return pr, &record.PointCloud{
		GUID:       "{00000000-0000-0000-0000-000000000001}",
		FileOffset: 0,
		Records:    records,
		Prototype:  prototype,
	}
}

func collect(t *testing.T, r *pointcloud.Reader) []pointcloud.Point {
	t.Helper()

	var points []pointcloud.Point
	for p, err := range r.Points() {
		require.NoError(t, err)
		points = append(points, p)
	}

	return points
}

func packFloat64s(values ...float64) []byte {
	out := make([]byte, 0, 8*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
	}

	return out
}

func packFloat32s(values ...float32) []byte {
	out := make([]byte, 0, 4*len(values))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}

	return out
}

func packInts(min int64, width uint, values ...int64) []byte {
	var packer pagetest.BitPacker
	for _, v := range values {
		packer.Write(uint64(v-min), width)
	}

	return packer.Bytes()
}

func doubleProto() []record.Record {
	return []record.Record{
		{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}},
		{Name: record.NameCartesianY, Type: record.DataType{Kind: record.KindDouble}},
		{Name: record.NameCartesianZ, Type: record.DataType{Kind: record.KindDouble}},
	}
}

func TestReader_DoubleCartesian(t *testing.T) {
	xs := []float64{0.1, -0.2, 0.3, 1e6, -1e-9}
	ys := []float64{1, 2, 3, 4, 5}
	zs := []float64{-1, -2, -3, -4, -5}

	packet := pagetest.DataPacket(0, packFloat64s(xs...), packFloat64s(ys...), packFloat64s(zs...))
	pr, pc := sectionFixture(t, 5, doubleProto(), packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 5)
	for i, p := range points {
		require.Equal(t, xs[i], p.Cartesian.X, "point %d", i)
		require.Equal(t, ys[i], p.Cartesian.Y, "point %d", i)
		require.Equal(t, zs[i], p.Cartesian.Z, "point %d", i)
	}

	require.Equal(t, uint64(5), r.Read())
}

func TestReader_SingleCartesianWidens(t *testing.T) {
	prototype := []record.Record{
		{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindSingle}},
	}
	xs := []float32{1.5, -2.5, 0.25}

	packet := pagetest.DataPacket(0, packFloat32s(xs...))
	pr, pc := sectionFixture(t, 3, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 3)
	for i, p := range points {
		require.Equal(t, float64(xs[i]), p.Cartesian.X)
	}
}

func TestReader_ScaledIntegerCartesian(t *testing.T) {
	const scale = 0.001
	scaledType := record.DataType{Kind: record.KindScaledInteger, Min: -100000, Max: 100000, Scale: scale}
	prototype := []record.Record{
		{Name: record.NameCartesianX, Type: scaledType},
		{Name: record.NameCartesianY, Type: scaledType},
		{Name: record.NameCartesianZ, Type: scaledType},
	}

	width := record.IntegerBits(scaledType.Min, scaledType.Max)
	require.Equal(t, uint(18), width)

	raws := [][]int64{
		{0, 1, -1, 99999, -100000},
		{500, -500, 0, 1, 2},
		{7, 8, 9, 10, 11},
	}
	packet := pagetest.DataPacket(0,
		packInts(scaledType.Min, width, raws[0]...),
		packInts(scaledType.Min, width, raws[1]...),
		packInts(scaledType.Min, width, raws[2]...),
	)
	pr, pc := sectionFixture(t, 5, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 5)
	for i, p := range points {
		require.InDelta(t, float64(raws[0][i])*scale, p.Cartesian.X, 1e-12, "point %d", i)
		require.InDelta(t, float64(raws[1][i])*scale, p.Cartesian.Y, 1e-12, "point %d", i)
		require.InDelta(t, float64(raws[2][i])*scale, p.Cartesian.Z, 1e-12, "point %d", i)
	}
}

// Scaled integer and double renditions of the same coordinates must
// agree to within half a scale step.
func TestReader_ScaledIntegerMatchesDouble(t *testing.T) {
	const scale = 0.001
	values := []float64{0.1234, -0.9876, 0.0005, 1.5, -2.25}

	scaledType := record.DataType{Kind: record.KindScaledInteger, Min: -10000, Max: 10000, Scale: scale}
	width := record.IntegerBits(scaledType.Min, scaledType.Max)

	raw := make([]int64, len(values))
	for i, v := range values {
		raw[i] = int64(math.Round(v / scale))
	}

	doublePacket := pagetest.DataPacket(0, packFloat64s(values...))
	doublePR, doublePC := sectionFixture(t, 5, []record.Record{
		{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}},
	}, doublePacket)

	scaledPacket := pagetest.DataPacket(0, packInts(scaledType.Min, width, raw...))
	scaledPR, scaledPC := sectionFixture(t, 5, []record.Record{
		{Name: record.NameCartesianX, Type: scaledType},
	}, scaledPacket)

	doubleReader, err := pointcloud.NewReader(doublePR, doublePC)
	require.NoError(t, err)
	scaledReader, err := pointcloud.NewReader(scaledPR, scaledPC)
	require.NoError(t, err)

	doublePoints := collect(t, doubleReader)
	scaledPoints := collect(t, scaledReader)
	require.Len(t, scaledPoints, len(doublePoints))

	for i := range doublePoints {
		require.InDelta(t, doublePoints[i].Cartesian.X, scaledPoints[i].Cartesian.X, scale*0.5, "point %d", i)
	}
}

func TestReader_ColorIntensityAndIndices(t *testing.T) {
	colorType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 255}
	intensityType := record.DataType{Kind: record.KindScaledInteger, Min: 0, Max: 2047, Scale: 0.001}
	invalidType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 2}
	rowType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 479}

	prototype := []record.Record{
		{Name: record.NameColorRed, Type: colorType},
		{Name: record.NameColorGreen, Type: colorType},
		{Name: record.NameColorBlue, Type: colorType},
		{Name: record.NameIntensity, Type: intensityType},
		{Name: record.NameCartesianInvalidState, Type: invalidType},
		{Name: record.NameRowIndex, Type: rowType},
		{Name: record.NameColumnIndex, Type: rowType},
	}

	reds := []int64{0, 128, 255}
	greens := []int64{255, 64, 0}
	blues := []int64{1, 2, 3}
	intensities := []int64{0, 1000, 2047}
	invalids := []int64{0, 1, 2}
	rows := []int64{0, 240, 479}
	cols := []int64{5, 6, 7}

	packet := pagetest.DataPacket(0,
		packInts(0, 8, reds...),
		packInts(0, 8, greens...),
		packInts(0, 8, blues...),
		packInts(0, 11, intensities...),
		packInts(0, 2, invalids...),
		packInts(0, 9, rows...),
		packInts(0, 9, cols...),
	)
	pr, pc := sectionFixture(t, 3, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 3)
	for i, p := range points {
		require.InDelta(t, float32(reds[i])/255, p.Color.Red, 1e-6, "point %d", i)
		require.InDelta(t, float32(greens[i])/255, p.Color.Green, 1e-6, "point %d", i)
		require.InDelta(t, float32(blues[i])/255, p.Color.Blue, 1e-6, "point %d", i)
		require.InDelta(t, float64(intensities[i])*0.001, float64(p.Intensity), 1e-6, "point %d", i)
		require.Equal(t, uint8(invalids[i]), p.CartesianInvalid, "point %d", i)
		require.Equal(t, rows[i], p.Row, "point %d", i)
		require.Equal(t, cols[i], p.Column, "point %d", i)
	}
}

func TestReader_UnitFloatColor(t *testing.T) {
	colorType := record.DataType{
		Kind:           record.KindSingle,
		FloatMin:       0,
		FloatMax:       255,
		HasFloatLimits: true,
	}
	prototype := []record.Record{{Name: record.NameColorRed, Type: colorType}}

	packet := pagetest.DataPacket(0, packFloat32s(0, 127.5, 255))
	pr, pc := sectionFixture(t, 3, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 3)
	require.InDelta(t, 0.0, points[0].Color.Red, 1e-6)
	require.InDelta(t, 0.5, points[1].Color.Red, 1e-6)
	require.InDelta(t, 1.0, points[2].Color.Red, 1e-6)
}

func TestReader_SingleIntensity(t *testing.T) {
	prototype := []record.Record{
		{Name: record.NameIntensity, Type: record.DataType{Kind: record.KindSingle}},
	}

	packet := pagetest.DataPacket(0, packFloat32s(0.25, 0.75))
	pr, pc := sectionFixture(t, 2, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Equal(t, float32(0.25), points[0].Intensity)
	require.Equal(t, float32(0.75), points[1].Intensity)
}

// A value may straddle two packets: the bit cursor continues across the
// packet boundary unless a compressor restart realigns it.
func TestReader_BitCursorContinuesAcrossPackets(t *testing.T) {
	intType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 4095}
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	values := []int64{0x123, 0xFFF, 0xA5A, 0x001, 0x7C3}
	stream := packInts(0, 12, values...)
	require.Len(t, stream, 8)

	// Split mid-value: the third value straddles the boundary.
	first := pagetest.DataPacket(0, stream[0:4])
	second := pagetest.DataPacket(0, stream[4:8])
	pr, pc := sectionFixture(t, 5, prototype, first, second)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 5)
	for i, p := range points {
		require.Equal(t, values[i], p.Row, "point %d", i)
	}
}

func TestReader_CompressorRestartRealigns(t *testing.T) {
	intType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 31}
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	// Three 5-bit values fill 15 bits of the first packet; its final
	// padding bit must be discarded when the second packet restarts the
	// compressor at byte alignment.
	firstValues := []int64{1, 30, 17}
	secondValues := []int64{2, 3}

	first := pagetest.DataPacket(0, packInts(0, 5, firstValues...))
	second := pagetest.DataPacket(section.PacketFlagCompressorRestart, packInts(0, 5, secondValues...))
	pr, pc := sectionFixture(t, 5, prototype, first, second)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 5)
	want := append(append([]int64(nil), firstValues...), secondValues...)
	for i, p := range points {
		require.Equal(t, want[i], p.Row, "point %d", i)
	}
}

func TestReader_UnknownFieldSkippedBitAccurately(t *testing.T) {
	prototype := []record.Record{
		{Name: record.NameUnknown, RawName: "futureAttribute", Type: record.DataType{Kind: record.KindInteger, Min: 0, Max: 15}},
		{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}},
	}

	xs := []float64{1.25, -3.5, 100}
	packet := pagetest.DataPacket(0,
		packInts(0, 4, 1, 2, 3),
		packFloat64s(xs...),
	)
	pr, pc := sectionFixture(t, 3, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 3)
	for i, p := range points {
		require.Equal(t, xs[i], p.Cartesian.X)
	}
}

func TestReader_Aligned64BitInteger(t *testing.T) {
	intType := record.DataType{Kind: record.KindInteger, Min: -(1 << 62), Max: 1 << 62}
	require.Equal(t, uint(64), intType.BitWidth())
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	values := []int64{0, -(1 << 62), 1 << 62, 12345678901234}
	packet := pagetest.DataPacket(0, packInts(intType.Min, 64, values...))
	pr, pc := sectionFixture(t, 4, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, 4)
	for i, p := range points {
		require.Equal(t, values[i], p.Row, "point %d", i)
	}
}

func TestReader_LargeCloudCrossesPages(t *testing.T) {
	const count = 2000
	xs := make([]float64, count)
	for i := range xs {
		xs[i] = float64(i) * 0.5
	}

	// Split into packets small enough to stay under the uint16 length
	// field, 250 doubles each.
	prototype := []record.Record{{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}}}
	var packets [][]byte
	for start := 0; start < count; start += 250 {
		packets = append(packets, pagetest.DataPacket(0, packFloat64s(xs[start:start+250]...)))
	}

	pr, pc := sectionFixture(t, count, prototype, packets...)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	points := collect(t, r)
	require.Len(t, points, count)
	for i, p := range points {
		require.Equal(t, xs[i], p.Cartesian.X, "point %d", i)
	}
}

func TestReader_ZeroRecords(t *testing.T) {
	pr, pc := sectionFixture(t, 0, doubleProto(), pagetest.DataPacket(0, nil, nil, nil))

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	_, ok, err := r.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReader_PacketTypeErrors(t *testing.T) {
	buildSection := func(packetType byte) (*paged.Reader, *record.PointCloud) {
		packet := pagetest.DataPacket(0, packFloat64s(1))
		packet[0] = packetType

		return sectionFixture(t, 1, []record.Record{
			{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}},
		}, packet)
	}

	t.Run("Index packet", func(t *testing.T) {
		pr, pc := buildSection(section.PacketTypeIndex)
		_, err := pointcloud.NewReader(pr, pc)
		require.ErrorIs(t, err, errs.ErrUnimplemented)
	})

	t.Run("Ignored packet", func(t *testing.T) {
		pr, pc := buildSection(section.PacketTypeIgnored)
		_, err := pointcloud.NewReader(pr, pc)
		require.ErrorIs(t, err, errs.ErrUnimplemented)
	})

	t.Run("Unknown packet type", func(t *testing.T) {
		pr, pc := buildSection(3)
		_, err := pointcloud.NewReader(pr, pc)
		require.ErrorIs(t, err, errs.ErrBadPacketType)
		require.ErrorIs(t, err, errs.ErrInvalid)
	})
}

func TestReader_StreamCountMismatch(t *testing.T) {
	// One slice in the packet, two fields in the prototype.
	packet := pagetest.DataPacket(0, packFloat64s(1))
	pr, pc := sectionFixture(t, 1, doubleProto()[:2], packet)

	_, err := pointcloud.NewReader(pr, pc)
	require.ErrorIs(t, err, errs.ErrStreamCountMismatch)
}

func TestReader_ValueOutOfRange(t *testing.T) {
	// Width 4 covers 0..15, but the declared range is 0..10.
	intType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 10}
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	packet := pagetest.DataPacket(0, packInts(0, 4, 5, 15))
	pr, pc := sectionFixture(t, 2, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	_, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = r.Next()
	require.ErrorIs(t, err, errs.ErrValueOutOfRange)
	require.ErrorIs(t, err, errs.ErrInvalid)

	// The reader is terminal after the first error.
	_, ok, err = r.Next()
	require.Error(t, err)
	require.False(t, ok)
}

func TestReader_UnsupportedBitWidth(t *testing.T) {
	intType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 1<<60 - 1}
	require.Equal(t, uint(60), intType.BitWidth())
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	packet := pagetest.DataPacket(0, make([]byte, 8))
	pr, pc := sectionFixture(t, 1, prototype, packet)

	_, err := pointcloud.NewReader(pr, pc)
	require.ErrorIs(t, err, errs.ErrUnsupportedBitWidth)
	require.ErrorIs(t, err, errs.ErrUnimplemented)
}

func TestReader_WrongSectionID(t *testing.T) {
	logical := pagetest.CompressedVectorSection(0, pagetest.DataPacket(0, packFloat64s(1)))
	logical[0] = 7

	phys := pagetest.Build(logical)
	pr, err := paged.NewReader(bytes.NewReader(phys), int64(len(phys)), section.PageSize)
	require.NoError(t, err)

	pc := &record.PointCloud{
		FileOffset: 0,
		Records:    1,
		Prototype:  []record.Record{{Name: record.NameCartesianX, Type: record.DataType{Kind: record.KindDouble}}},
	}

	_, err = pointcloud.NewReader(pr, pc)
	require.ErrorIs(t, err, errs.ErrBadSectionID)
}

func TestReader_PointsIteratorYieldsTerminalError(t *testing.T) {
	intType := record.DataType{Kind: record.KindInteger, Min: 0, Max: 10}
	prototype := []record.Record{{Name: record.NameRowIndex, Type: intType}}

	packet := pagetest.DataPacket(0, packInts(0, 4, 5, 15))
	pr, pc := sectionFixture(t, 2, prototype, packet)

	r, err := pointcloud.NewReader(pr, pc)
	require.NoError(t, err)

	var points, errors int
	for _, err := range r.Points() {
		if err != nil {
			errors++
			require.ErrorIs(t, err, errs.ErrValueOutOfRange)
		} else {
			points++
		}
	}

	require.Equal(t, 1, points)
	require.Equal(t, 1, errors)
}
