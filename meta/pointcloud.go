package meta

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/record"
)

func pointCloudsFromElement(root *etree.Element) ([]record.PointCloud, error) {
	data3D := root.SelectElement("data3D")
	if data3D == nil {
		return nil, nil
	}

	var pointClouds []record.PointCloud
	for _, child := range data3D.ChildElements() {
		if child.Tag != "vectorChild" || child.SelectAttrValue("type", "") != "Structure" {
			continue
		}

		pc, err := pointCloudFromElement(child)
		if err != nil {
			return nil, err
		}

		pointClouds = append(pointClouds, pc)
	}

	return pointClouds, nil
}

func pointCloudFromElement(el *etree.Element) (record.PointCloud, error) {
	var pc record.PointCloud
	var err error

	if pc.GUID, err = requiredString(el, "guid"); err != nil {
		return pc, err
	}
	if pc.Name, _, err = optionalString(el, "name"); err != nil {
		return pc, err
	}
	if pc.Description, _, err = optionalString(el, "description"); err != nil {
		return pc, err
	}
	if pc.SensorVendor, _, err = optionalString(el, "sensorVendor"); err != nil {
		return pc, err
	}
	if pc.SensorModel, _, err = optionalString(el, "sensorModel"); err != nil {
		return pc, err
	}
	if pc.SensorSerial, _, err = optionalString(el, "sensorSerialNumber"); err != nil {
		return pc, err
	}
	if pc.SensorHardwareVersion, _, err = optionalString(el, "sensorHardwareVersion"); err != nil {
		return pc, err
	}
	if pc.SensorSoftwareVersion, _, err = optionalString(el, "sensorSoftwareVersion"); err != nil {
		return pc, err
	}
	if pc.SensorFirmwareVersion, _, err = optionalString(el, "sensorFirmwareVersion"); err != nil {
		return pc, err
	}
	if pc.Temperature, err = optionalFloat(el, "temperature"); err != nil {
		return pc, err
	}
	if pc.RelativeHumidity, err = optionalFloat(el, "relativeHumidity"); err != nil {
		return pc, err
	}
	if pc.AtmosphericPressure, err = optionalFloat(el, "atmosphericPressure"); err != nil {
		return pc, err
	}

	if pc.CartesianBounds, err = cartesianBoundsFromElement(el); err != nil {
		return pc, err
	}
	if pc.SphericalBounds, err = sphericalBoundsFromElement(el); err != nil {
		return pc, err
	}
	if pc.IndexBounds, err = indexBoundsFromElement(el); err != nil {
		return pc, err
	}
	if pc.Pose, err = transformFromElement(el, "pose"); err != nil {
		return pc, err
	}

	points, err := typedChild(el, "points", "CompressedVector")
	if err != nil {
		return pc, err
	}
	if points == nil {
		return pc, fmt.Errorf("%w: cannot find 'points' element inside 'data3D' child", errs.ErrInvalid)
	}

	if pc.FileOffset, err = uintAttribute(points, "fileOffset"); err != nil {
		return pc, err
	}
	if pc.Records, err = uintAttribute(points, "recordCount"); err != nil {
		return pc, err
	}

	prototype, err := typedChild(points, "prototype", "Structure")
	if err != nil {
		return pc, err
	}
	if prototype == nil {
		return pc, fmt.Errorf("%w: cannot find 'prototype' element inside 'points'", errs.ErrInvalid)
	}

	for _, field := range prototype.ChildElements() {
		dataType, err := dataTypeFromElement(field)
		if err != nil {
			return pc, err
		}

		pc.Prototype = append(pc.Prototype, record.Record{
			Name:    record.ParseName(field.Tag),
			RawName: field.Tag,
			Type:    dataType,
		})
	}

	return pc, nil
}

func dataTypeFromElement(el *etree.Element) (record.DataType, error) {
	typeName := el.SelectAttrValue("type", "")
	if typeName == "" {
		return record.DataType{}, fmt.Errorf("%w: missing 'type' attribute for element '%s'", errs.ErrInvalid, el.Tag)
	}

	switch typeName {
	case "Float":
		precision := el.SelectAttrValue("precision", "double")
		var t record.DataType
		switch precision {
		case "double":
			t.Kind = record.KindDouble
		case "single":
			t.Kind = record.KindSingle
		default:
			return record.DataType{}, fmt.Errorf("%w: unknown Float precision '%s' in element '%s'",
				errs.ErrInvalid, precision, el.Tag)
		}

		var minOK, maxOK bool
		var err error
		if t.FloatMin, minOK, err = floatAttribute(el, "minimum"); err != nil {
			return record.DataType{}, err
		}
		if t.FloatMax, maxOK, err = floatAttribute(el, "maximum"); err != nil {
			return record.DataType{}, err
		}
		t.HasFloatLimits = minOK && maxOK

		return t, nil

	case "Integer", "ScaledInteger":
		t := record.DataType{Kind: record.KindInteger}
		min, ok, err := intAttribute(el, "minimum")
		if err != nil {
			return record.DataType{}, err
		}
		if !ok {
			return record.DataType{}, fmt.Errorf("%w: missing 'minimum' attribute in element '%s'", errs.ErrInvalid, el.Tag)
		}

		max, ok, err := intAttribute(el, "maximum")
		if err != nil {
			return record.DataType{}, err
		}
		if !ok {
			return record.DataType{}, fmt.Errorf("%w: missing 'maximum' attribute in element '%s'", errs.ErrInvalid, el.Tag)
		}

		if max <= min {
			return record.DataType{}, fmt.Errorf("%w: maximum %d and minimum %d of element '%s' are inconsistent",
				errs.ErrInvalid, max, min, el.Tag)
		}
		t.Min, t.Max = min, max

		if typeName == "ScaledInteger" {
			t.Kind = record.KindScaledInteger
			scale, ok, err := floatAttribute(el, "scale")
			if err != nil {
				return record.DataType{}, err
			}
			if !ok {
				return record.DataType{}, fmt.Errorf("%w: missing 'scale' attribute in element '%s'", errs.ErrInvalid, el.Tag)
			}
			t.Scale = scale
		}

		return t, nil

	default:
		return record.DataType{}, fmt.Errorf("%w: type '%s' in element '%s'", errs.ErrUnsupportedXMLType, typeName, el.Tag)
	}
}

func cartesianBoundsFromElement(parent *etree.Element) (*record.CartesianBounds, error) {
	el := parent.SelectElement("cartesianBounds")
	if el == nil {
		return nil, nil
	}

	var b record.CartesianBounds
	for _, limit := range []struct {
		tag string
		dst *float64
	}{
		{"xMinimum", &b.XMin}, {"xMaximum", &b.XMax},
		{"yMinimum", &b.YMin}, {"yMaximum", &b.YMax},
		{"zMinimum", &b.ZMin}, {"zMaximum", &b.ZMax},
	} {
		if err := boundedLimit(el, limit.tag, limit.dst); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

func sphericalBoundsFromElement(parent *etree.Element) (*record.SphericalBounds, error) {
	el := parent.SelectElement("sphericalBounds")
	if el == nil {
		return nil, nil
	}

	var b record.SphericalBounds
	for _, limit := range []struct {
		tag string
		dst *float64
	}{
		{"rangeMinimum", &b.RangeMin}, {"rangeMaximum", &b.RangeMax},
		{"elevationMinimum", &b.ElevationMin}, {"elevationMaximum", &b.ElevationMax},
		{"azimuthStart", &b.AzimuthStart}, {"azimuthEnd", &b.AzimuthEnd},
	} {
		if err := boundedLimit(el, limit.tag, limit.dst); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

// boundedLimit reads an optional Float limit into dst, leaving it
// untouched when the element is absent.
func boundedLimit(el *etree.Element, tag string, dst *float64) error {
	v, err := optionalFloat(el, tag)
	if err != nil {
		return err
	}
	if v != nil {
		*dst = *v
	}

	return nil
}

func indexBoundsFromElement(parent *etree.Element) (*record.IndexBounds, error) {
	el := parent.SelectElement("indexBounds")
	if el == nil {
		return nil, nil
	}

	var b record.IndexBounds
	for _, limit := range []struct {
		tag string
		dst *int64
	}{
		{"rowMinimum", &b.RowMin}, {"rowMaximum", &b.RowMax},
		{"columnMinimum", &b.ColumnMin}, {"columnMaximum", &b.ColumnMax},
		{"returnMinimum", &b.ReturnMin}, {"returnMaximum", &b.ReturnMax},
	} {
		v, err := optionalInteger(el, limit.tag)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*limit.dst = *v
		}
	}

	return &b, nil
}

func transformFromElement(parent *etree.Element, tag string) (*record.Transform, error) {
	el := parent.SelectElement(tag)
	if el == nil {
		return nil, nil
	}

	t := record.Transform{Rotation: record.Quaternion{W: 1}}

	if rotation := el.SelectElement("rotation"); rotation != nil {
		var err error
		if t.Rotation.W, err = requiredFloat(rotation, "w"); err != nil {
			return nil, err
		}
		if t.Rotation.X, err = requiredFloat(rotation, "x"); err != nil {
			return nil, err
		}
		if t.Rotation.Y, err = requiredFloat(rotation, "y"); err != nil {
			return nil, err
		}
		if t.Rotation.Z, err = requiredFloat(rotation, "z"); err != nil {
			return nil, err
		}
	}

	if translation := el.SelectElement("translation"); translation != nil {
		var err error
		if t.Translation.X, err = requiredFloat(translation, "x"); err != nil {
			return nil, err
		}
		if t.Translation.Y, err = requiredFloat(translation, "y"); err != nil {
			return nil, err
		}
		if t.Translation.Z, err = requiredFloat(translation, "z"); err != nil {
			return nil, err
		}
	}

	return &t, nil
}
