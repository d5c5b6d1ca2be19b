// Package errs defines the error kinds shared by all e57 packages.
//
// Two base sentinels classify every failure: ErrInvalid for content that
// violates the E57 format specification, and ErrUnimplemented for
// constructs the format allows but this reader does not decode. Every
// specific sentinel wraps one of the base kinds, so callers can match at
// either level:
//
//	if errors.Is(err, errs.ErrChecksumMismatch) { ... } // exact cause
//	if errors.Is(err, errs.ErrInvalid) { ... }          // any format violation
//
// I/O failures are not classified here; they pass through wrapped with
// their original error so errors.Is still reaches os and io sentinels.
package errs

import (
	"errors"
	"fmt"
)

// Base kinds.
var (
	ErrInvalid       = errors.New("invalid e57 content")
	ErrUnimplemented = errors.New("unimplemented e57 feature")
)

// File header and page layer.
var (
	ErrBadSignature     = fmt.Errorf("%w: file signature is not ASTM-E57", ErrInvalid)
	ErrBadVersion       = fmt.Errorf("%w: unsupported file version", ErrInvalid)
	ErrBadHeaderSize    = fmt.Errorf("%w: wrong header size", ErrInvalid)
	ErrBadPageSize      = fmt.Errorf("%w: unsupported page size", ErrInvalid)
	ErrBadFileSize      = fmt.Errorf("%w: physical size is not a positive multiple of the page size", ErrInvalid)
	ErrChecksumMismatch = fmt.Errorf("%w: page checksum mismatch", ErrInvalid)
	ErrShortRead        = fmt.Errorf("%w: truncated content", ErrInvalid)
)

// Compressed vector sections and data packets.
var (
	ErrBadSectionID        = fmt.Errorf("%w: wrong section identifier", ErrInvalid)
	ErrBadSectionLength    = fmt.Errorf("%w: section length is not a multiple of four", ErrInvalid)
	ErrBadPacketType       = fmt.Errorf("%w: unknown packet type", ErrInvalid)
	ErrUnimplementedPacket = fmt.Errorf("%w: index and ignored packets cannot be decoded", ErrUnimplemented)
	ErrStreamCountMismatch = fmt.Errorf("%w: byte stream count does not match the prototype", ErrInvalid)
	ErrPacketLayout        = fmt.Errorf("%w: byte stream slices do not fill the packet", ErrInvalid)
)

// Decoding.
var (
	ErrValueOutOfRange     = fmt.Errorf("%w: integer value outside its declared bounds", ErrInvalid)
	ErrMisalignedValue     = fmt.Errorf("%w: value requires a byte aligned cursor", ErrInvalid)
	ErrUnsupportedBitWidth = fmt.Errorf("%w: unsupported integer bit width", ErrUnimplemented)
)

// XML metadata layer.
var (
	ErrMalformedXML       = fmt.Errorf("%w: malformed XML document", ErrInvalid)
	ErrUnsupportedXMLType = fmt.Errorf("%w: unsupported XML element type", ErrUnimplemented)
)
