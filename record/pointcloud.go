package record

// PointCloud describes one point cloud: where its compressed vector
// section lives, how many records it holds, and the prototype layout of
// each record. It carries no point data.
type PointCloud struct {
	// GUID is the globally unique identifier of the point cloud.
	GUID string
	// Name is the optional user-defined name, empty when absent.
	Name string
	// Description is the optional user-defined description.
	Description string

	// FileOffset is the physical offset of the compressed vector section
	// header.
	FileOffset uint64
	// Records is the number of points in the cloud.
	Records uint64
	// Prototype lists the attributes of one record in wire order.
	Prototype []Record

	// CartesianBounds, SphericalBounds and IndexBounds are nil when the
	// XML metadata omits them.
	CartesianBounds *CartesianBounds
	SphericalBounds *SphericalBounds
	IndexBounds     *IndexBounds

	// Pose transforms local point coordinates into the file-level
	// coordinate system, nil when absent.
	Pose *Transform

	SensorVendor          string
	SensorModel           string
	SensorSerial          string
	SensorHardwareVersion string
	SensorSoftwareVersion string
	SensorFirmwareVersion string

	// Temperature, RelativeHumidity and AtmosphericPressure are ambient
	// measurements at capture time, nil when absent.
	Temperature         *float64
	RelativeHumidity    *float64
	AtmosphericPressure *float64
}

// CartesianBounds holds the axis-aligned Cartesian extent of a point
// cloud. Individual limits the metadata omits read as zero.
type CartesianBounds struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// SphericalBounds holds the spherical extent of a point cloud.
type SphericalBounds struct {
	RangeMin, RangeMax         float64
	ElevationMin, ElevationMax float64
	AzimuthStart, AzimuthEnd   float64
}

// IndexBounds holds the row, column and return index extent of gridded
// point clouds.
type IndexBounds struct {
	RowMin, RowMax       int64
	ColumnMin, ColumnMax int64
	ReturnMin, ReturnMax int64
}

// Quaternion describes the rotation part of a pose. W is the scalar
// part and shall be non-negative for a normalized pose.
type Quaternion struct {
	W, X, Y, Z float64
}

// Translation describes the translation part of a pose in meters.
type Translation struct {
	X, Y, Z float64
}

// Transform combines the rotation and translation of a point cloud pose.
type Transform struct {
	Rotation    Quaternion
	Translation Translation
}

// Blob locates a binary blob section inside the file.
type Blob struct {
	// FileOffset is the physical offset of the blob section header.
	FileOffset uint64
	// Length is the logical byte count of the blob data.
	Length uint64
}
