// Package meta parses the XML document embedded in an E57 file into the
// descriptors consumed by the binary decode path.
//
// The E57 XML is a generic attribute-typed element tree, not a fixed
// schema: every element carries a "type" attribute (String, Float,
// Integer, ScaledInteger, Structure, Vector, CompressedVector, Blob)
// that governs how its text and attributes are read. The package walks
// that tree with etree and returns plain descriptor structs; it never
// touches the binary sections itself.
package meta

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/lidarlab/e57/errs"
	"github.com/lidarlab/e57/record"
)

// Root holds the fields of the e57Root element shared by all elements in
// the file.
type Root struct {
	// Format is the format name, "ASTM E57 3D Imaging Data File".
	Format string
	// GUID is the globally unique identifier of the file.
	GUID string
	// MajorVersion and MinorVersion mirror the binary header version.
	MajorVersion int64
	MinorVersion int64
	// LibraryVersion names the software that wrote the file, empty when
	// absent.
	LibraryVersion string
	// CoordinateMetadata is the optional Coordinate Reference System
	// description in well-known text format, empty when absent.
	CoordinateMetadata string
}

// Parse decodes the XML payload of an E57 file.
//
// Returns:
//   - Root: Parsed e57Root fields
//   - []record.PointCloud: One descriptor per data3D child, in document
//     order
//   - error: ErrMalformedXML when the document does not parse, ErrInvalid
//     when required elements or attributes are missing
func Parse(xml []byte) (Root, []record.PointCloud, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return Root{}, nil, fmt.Errorf("%w: %v", errs.ErrMalformedXML, err)
	}

	rootElem := doc.FindElement("//e57Root")
	if rootElem == nil {
		return Root{}, nil, fmt.Errorf("%w: cannot find 'e57Root' element", errs.ErrInvalid)
	}

	root, err := rootFromElement(rootElem)
	if err != nil {
		return Root{}, nil, err
	}

	pointClouds, err := pointCloudsFromElement(rootElem)
	if err != nil {
		return Root{}, nil, err
	}

	return root, pointClouds, nil
}

func rootFromElement(el *etree.Element) (Root, error) {
	format, err := requiredString(el, "formatName")
	if err != nil {
		return Root{}, err
	}

	guid, err := requiredString(el, "guid")
	if err != nil {
		return Root{}, err
	}

	major, err := requiredInteger(el, "versionMajor")
	if err != nil {
		return Root{}, err
	}

	minor, err := requiredInteger(el, "versionMinor")
	if err != nil {
		return Root{}, err
	}

	library, _, err := optionalString(el, "e57LibraryVersion")
	if err != nil {
		return Root{}, err
	}

	coordinate, _, err := optionalString(el, "coordinateMetadata")
	if err != nil {
		return Root{}, err
	}

	return Root{
		Format:             format,
		GUID:               guid,
		MajorVersion:       major,
		MinorVersion:       minor,
		LibraryVersion:     library,
		CoordinateMetadata: coordinate,
	}, nil
}

// BlobFromElement reads the fileOffset and length attributes of an
// element with type "Blob", as used by preview images and other binary
// attachments.
func BlobFromElement(el *etree.Element) (record.Blob, error) {
	if el.SelectAttrValue("type", "") != "Blob" {
		return record.Blob{}, fmt.Errorf("%w: element '%s' is not a blob", errs.ErrInvalid, el.Tag)
	}

	offset, err := uintAttribute(el, "fileOffset")
	if err != nil {
		return record.Blob{}, err
	}

	length, err := uintAttribute(el, "length")
	if err != nil {
		return record.Blob{}, err
	}

	return record.Blob{FileOffset: offset, Length: length}, nil
}
