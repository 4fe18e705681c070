package kmod

import (
	"encoding/binary"
	"io"
)

const (
	MagicLen             = 8
	FormatVersionLen     = 8
	CurrentFormatVersion = uint64(1)

	// FixedHeaderLen covers magic, format version and the runtime version
	// length prefix.
	FixedHeaderLen = MagicLen + FormatVersionLen + lengthPrefixLen
)

// Field names used in diagnostics.
const (
	FieldMagic          = "file magic"
	FieldFormatVersion  = "file format version"
	FieldRuntimeVersion = "runtime version"
)

// Magic identifies every file of this format family.
var Magic = [MagicLen]byte{'D', 'R', 'L', 'K', 'M', 'O', 'D', 0x00}

// Header is the framing header in front of a module payload.
type Header struct {
	Magic          [MagicLen]byte
	FormatVersion  uint64
	RuntimeVersion string
}

// Len is the encoded size of h in bytes.
func (h Header) Len() int {
	return FixedHeaderLen + len(h.RuntimeVersion)
}

// DecodeHeader parses the header fields from r in wire order. Fields are
// not checked for semantic correctness.
func DecodeHeader(r io.Reader) (Header, error) {
	var h Header

	magic, err := readExact(r, MagicLen, FieldMagic)
	if err != nil {
		return Header{}, err
	}
	copy(h.Magic[:], magic)

	version, err := readExact(r, FormatVersionLen, FieldFormatVersion)
	if err != nil {
		return Header{}, err
	}
	h.FormatVersion = binary.BigEndian.Uint64(version)

	h.RuntimeVersion, err = readLengthPrefixedString(r, FieldRuntimeVersion)
	if err != nil {
		return Header{}, err
	}
	return h, nil
}

// EncodeHeader writes the magic, the current format version and
// runtimeVersion to w.
func EncodeHeader(w io.Writer, runtimeVersion string) error {
	if len(runtimeVersion) > MaxStringLen {
		return newError(KindStringTooLong, FieldRuntimeVersion, "%d bytes exceeds maximum of %d", len(runtimeVersion), MaxStringLen)
	}
	buf := make([]byte, MagicLen+FormatVersionLen)
	copy(buf[0:MagicLen], Magic[:])
	binary.BigEndian.PutUint64(buf[MagicLen:], CurrentFormatVersion)
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return writeLengthPrefixedString(w, runtimeVersion)
}
