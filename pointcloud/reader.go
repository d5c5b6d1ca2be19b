package pointcloud

import (
	"fmt"
	"iter"

	"github.com/lidarlab/e57/internal/paged"
	"github.com/lidarlab/e57/record"
	"github.com/lidarlab/e57/section"
)

// Reader iterates over the decoded points of one point cloud.
//
// Note: The Reader is NOT safe for concurrent use and NOT reusable;
// create one reader per iteration. Concurrent iterations over different
// point clouds of the same file are safe because every reader owns its
// own cursor state.
type Reader struct {
	pc      record.PointCloud
	read    uint64
	readers []propertyReader
	err     error
}

// NewReader validates the compressed vector section of the given point
// cloud and builds one field decoder per prototype entry.
//
// Parameters:
//   - pr: Paged view of the file the descriptor points into
//   - pc: Point cloud descriptor produced by the XML metadata layer
//
// Returns:
//   - *Reader: Iterator positioned before the first point
//   - error: Section header validation errors, or packet errors from
//     reading the first data packet of each field
func NewReader(pr *paged.Reader, pc *record.PointCloud) (*Reader, error) {
	var buf [section.CompressedVectorHeaderSize]byte
	if err := pr.ReadLogical(buf[:], pr.PhysicalToLogical(int64(pc.FileOffset))); err != nil {
		return nil, err
	}

	var header section.CompressedVectorHeader
	if err := header.Parse(buf[:]); err != nil {
		return nil, err
	}

	r := &Reader{pc: *pc}
	if pc.Records == 0 {
		return r, nil
	}

	dataOffset := pr.PhysicalToLogical(int64(header.DataOffset))
	fieldCount := len(pc.Prototype)
	r.readers = make([]propertyReader, 0, fieldCount)
	for i, rec := range pc.Prototype {
		s, err := newFieldStream(pr, dataOffset, i, fieldCount)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldName(rec), err)
		}

		fieldReader, err := bindField(s, rec)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldName(rec), err)
		}

		r.readers = append(r.readers, fieldReader)
	}

	return r, nil
}

func fieldName(rec record.Record) string {
	if rec.Name == record.NameUnknown && rec.RawName != "" {
		return rec.RawName
	}

	return rec.Name.String()
}

// bindField picks the loader, converter and saver triple for one
// prototype field. Fields outside the binding table are consumed with a
// bit-accurate skip so unknown extensions never block decoding.
func bindField(s *fieldStream, rec record.Record) (propertyReader, error) {
	t := rec.Type

	switch rec.Name {
	case record.NameCartesianX, record.NameCartesianY, record.NameCartesianZ:
		save := saveCartesianX
		switch rec.Name {
		case record.NameCartesianY:
			save = saveCartesianY
		case record.NameCartesianZ:
			save = saveCartesianZ
		}

		switch t.Kind {
		case record.KindDouble:
			return &f64Reader{loader: f64Loader{s: s}, save: save}, nil
		case record.KindSingle:
			return &f32WidenReader{loader: f32Loader{s: s}, save: save}, nil
		case record.KindScaledInteger:
			loader, err := newIntLoader(s, t.Min, t.Max)
			if err != nil {
				return nil, err
			}

			return &scaledIntReader{loader: loader, scale: t.Scale, save: save}, nil
		}

	case record.NameColorRed, record.NameColorGreen, record.NameColorBlue:
		save := saveColorRed
		switch rec.Name {
		case record.NameColorGreen:
			save = saveColorGreen
		case record.NameColorBlue:
			save = saveColorBlue
		}

		switch {
		case t.Kind == record.KindInteger:
			loader, err := newIntLoader(s, t.Min, t.Max)
			if err != nil {
				return nil, err
			}

			return &unitIntReader{loader: loader, min: t.Min, max: t.Max, save: save}, nil
		case t.Kind == record.KindSingle && t.HasFloatLimits:
			return &unitF32Reader{
				loader: f32Loader{s: s},
				min:    float32(t.FloatMin),
				max:    float32(t.FloatMax),
				save:   save,
			}, nil
		}

	case record.NameIntensity:
		switch t.Kind {
		case record.KindScaledInteger:
			loader, err := newIntLoader(s, t.Min, t.Max)
			if err != nil {
				return nil, err
			}

			return &scaledIntF32Reader{loader: loader, scale: t.Scale, save: saveIntensity}, nil
		case record.KindSingle:
			return &f32Reader{loader: f32Loader{s: s}, save: saveIntensity}, nil
		}

	case record.NameCartesianInvalidState:
		if t.Kind == record.KindInteger {
			loader, err := newIntLoader(s, t.Min, t.Max)
			if err != nil {
				return nil, err
			}

			return &u8Reader{loader: loader, save: saveCartesianInvalid}, nil
		}

	case record.NameRowIndex, record.NameColumnIndex:
		if t.Kind == record.KindInteger {
			save := saveRow
			if rec.Name == record.NameColumnIndex {
				save = saveColumn
			}

			loader, err := newIntLoader(s, t.Min, t.Max)
			if err != nil {
				return nil, err
			}

			return &i64Reader{loader: loader, save: save}, nil
		}
	}

	loader, err := newSkipLoader(s, t)
	if err != nil {
		return nil, err
	}

	return &skipReader{loader: loader}, nil
}

// Next decodes one point. The boolean reports whether a point was
// produced; it turns false once all records have been read. After the
// first error the reader is terminal and produces no further points.
func (r *Reader) Next() (Point, bool, error) {
	if r.err != nil {
		return Point{}, false, r.err
	}
	if r.read >= r.pc.Records {
		return Point{}, false, nil
	}

	atEnd := r.read == r.pc.Records-1

	var p Point
	for _, reader := range r.readers {
		if err := reader.read(&p, atEnd); err != nil {
			r.err = fmt.Errorf("record %d: %w", r.read, err)

			return Point{}, false, r.err
		}
	}

	r.read++

	return p, true, nil
}

// Read reports how many points have been decoded so far.
func (r *Reader) Read() uint64 {
	return r.read
}

// Records returns the declared record count of the point cloud.
func (r *Reader) Records() uint64 {
	return r.pc.Records
}

// Points returns an iterator over the remaining points of the cloud.
//
// Iteration stops after the declared record count, or after the first
// error, which is yielded once with a zero point.
func (r *Reader) Points() iter.Seq2[Point, error] {
	return func(yield func(Point, error) bool) {
		for {
			p, ok, err := r.Next()
			if err != nil {
				yield(Point{}, err)

				return
			}
			if !ok || !yield(p, nil) {
				return
			}
		}
	}
}
