package pointcloud

// propertyReader decodes one field of one record per call: load a raw
// value from the field's bit stream, convert it into the destination
// unit, and save it into the output point. Each implementation is
// monomorphic over its loader and converter so the bit math inlines;
// the interface call is amortized once per point and field.
type propertyReader interface {
	read(p *Point, atEnd bool) error
}

// f64Reader loads a double and stores it unchanged.
type f64Reader struct {
	loader f64Loader
	save   func(*Point, float64)
}

func (r *f64Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, v)

	return nil
}

// f32WidenReader loads a single and widens it to double.
type f32WidenReader struct {
	loader f32Loader
	save   func(*Point, float64)
}

func (r *f32WidenReader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, float64(v))

	return nil
}

// scaledIntReader loads a bounded integer and multiplies it by the
// declared scale to obtain the real-valued measurement.
type scaledIntReader struct {
	loader *intLoader
	scale  float64
	save   func(*Point, float64)
}

func (r *scaledIntReader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, float64(v)*r.scale)

	return nil
}

// unitIntReader loads a bounded integer and normalizes it into [0, 1]
// over its declared range.
type unitIntReader struct {
	loader *intLoader
	min    int64
	max    int64
	save   func(*Point, float32)
}

func (r *unitIntReader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, float32(v-r.min)/float32(r.max-r.min))

	return nil
}

// unitF32Reader loads a single and normalizes it into [0, 1] over its
// declared limits.
type unitF32Reader struct {
	loader f32Loader
	min    float32
	max    float32
	save   func(*Point, float32)
}

func (r *unitF32Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, (v-r.min)/(r.max-r.min))

	return nil
}

// f32Reader loads a single and stores it unchanged.
type f32Reader struct {
	loader f32Loader
	save   func(*Point, float32)
}

func (r *f32Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, v)

	return nil
}

// scaledIntF32Reader loads a bounded integer and scales it into a
// float32 destination.
type scaledIntF32Reader struct {
	loader *intLoader
	scale  float64
	save   func(*Point, float32)
}

func (r *scaledIntF32Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, float32(float64(v)*r.scale))

	return nil
}

// u8Reader loads a bounded integer known to lie in [0, 255] and
// truncates it to a byte.
type u8Reader struct {
	loader *intLoader
	save   func(*Point, uint8)
}

func (r *u8Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, uint8(v))

	return nil
}

// i64Reader loads a bounded integer and stores it unchanged.
type i64Reader struct {
	loader *intLoader
	save   func(*Point, int64)
}

func (r *i64Reader) read(p *Point, atEnd bool) error {
	v, err := r.loader.load(atEnd)
	if err != nil {
		return err
	}
	r.save(p, v)

	return nil
}

// skipReader consumes a field's bits and writes nothing.
type skipReader struct {
	loader *skipLoader
}

func (r *skipReader) read(_ *Point, atEnd bool) error {
	return r.loader.load(atEnd)
}
