// Package pointcloud decodes the compressed vector section of one point
// cloud into a stream of typed points.
//
// Every prototype field is materialized as a small decoder that owns its
// own packet cursor and bit stream state. A Reader steps all field
// decoders in prototype order once per record, so fields of point N+1
// are never produced before all fields of point N.
package pointcloud

// CartesianCoordinate holds a Cartesian position in meters.
type CartesianCoordinate struct {
	X float64
	Y float64
	Z float64
}

// Color holds color components normalized into [0, 1].
type Color struct {
	Red   float32
	Green float32
	Blue  float32
}

// Point is one decoded record of a point cloud.
//
// Fields absent from the cloud's prototype keep their zero value. The
// validity flags are surfaced raw instead of filtering records, so the
// iterator always yields exactly the declared number of points and the
// caller decides what to drop.
type Point struct {
	// Cartesian is the Cartesian coordinate of the point.
	Cartesian CartesianCoordinate
	// CartesianInvalid is 0 when Cartesian is valid, 1 when only the
	// direction is meaningful, and 2 when the coordinate is invalid.
	CartesianInvalid uint8
	// Color is the point color, normalized into [0, 1] per component.
	Color Color
	// Intensity is the sensor intensity of the point.
	Intensity float32
	// Row and Column locate the point in gridded data.
	Row    int64
	Column int64
}
