package pointcloud

import (
	"fmt"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/record"
)

// Loaders pull one raw value per record from their field stream,
// appending the next packet's slice whenever the bit cursor drains the
// current one. On the final record atEnd suppresses that fetch: the
// stream may have no further packet, and a drained window there means
// the byte streams end short of the declared record count.

type intLoader struct {
	s     *fieldStream
	min   int64
	max   int64
	width uint
}

func newIntLoader(s *fieldStream, min, max int64) (*intLoader, error) {
	width := record.IntegerBits(min, max)
	if width > 56 && width != 64 {
		return nil, fmt.Errorf("%w: integers with %d bits", errs.ErrUnsupportedBitWidth, width)
	}

	return &intLoader{s: s, min: min, max: max, width: width}, nil
}

func (l *intLoader) load(atEnd bool) (int64, error) {
	for {
		raw, ok, err := l.s.ex.ExtractInt(l.width)
		if err != nil {
			return 0, err
		}
		if ok {
			v := int64(raw) + l.min
			if v < l.min || v > l.max {
				return 0, fmt.Errorf("%w: %d outside [%d, %d]", errs.ErrValueOutOfRange, v, l.min, l.max)
			}

			return v, nil
		}

		if atEnd {
			return 0, fmt.Errorf("%w: byte stream drained before the last record", errs.ErrShortRead)
		}
		if err := l.s.nextPacket(); err != nil {
			return 0, err
		}
	}
}

type f32Loader struct {
	s *fieldStream
}

func (l *f32Loader) load(atEnd bool) (float32, error) {
	for {
		v, ok, err := l.s.ex.ExtractFloat32()
		if err != nil {
			return 0, err
		}
		if ok {
			return v, nil
		}

		if atEnd {
			return 0, fmt.Errorf("%w: byte stream drained before the last record", errs.ErrShortRead)
		}
		if err := l.s.nextPacket(); err != nil {
			return 0, err
		}
	}
}

type f64Loader struct {
	s *fieldStream
}

func (l *f64Loader) load(atEnd bool) (float64, error) {
	for {
		v, ok, err := l.s.ex.ExtractFloat64()
		if err != nil {
			return 0, err
		}
		if ok {
			return v, nil
		}

		if atEnd {
			return 0, fmt.Errorf("%w: byte stream drained before the last record", errs.ErrShortRead)
		}
		if err := l.s.nextPacket(); err != nil {
			return 0, err
		}
	}
}

// skipLoader advances past a field that is not bound to any point
// attribute, keeping the bit cursor accurate for the packets it shares
// with decoded fields. The extraction discards the value, so float
// widths go through the integer path as plain 32 or 64 bit reads.
type skipLoader struct {
	s     *fieldStream
	width uint
}

func newSkipLoader(s *fieldStream, t record.DataType) (*skipLoader, error) {
	width := t.BitWidth()
	if width > 56 && width != 64 {
		return nil, fmt.Errorf("%w: integers with %d bits", errs.ErrUnsupportedBitWidth, width)
	}

	return &skipLoader{s: s, width: width}, nil
}

func (l *skipLoader) load(atEnd bool) error {
	for {
		_, ok, err := l.s.ex.ExtractInt(l.width)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if atEnd {
			return fmt.Errorf("%w: byte stream drained before the last record", errs.ErrShortRead)
		}
		if err := l.s.nextPacket(); err != nil {
			return err
		}
	}
}
