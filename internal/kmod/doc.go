// Package kmod frames knowledge modules.
//
// A module is a fixed binary header followed by an opaque payload:
//
//	offset 0   8 bytes  magic "DRLKMOD\x00"
//	offset 8   8 bytes  format version, uint64 big-endian
//	offset 16  2 bytes  runtime version length N, uint16 big-endian
//	offset 18  N bytes  runtime version, UTF-8
//	offset 18+N         payload, owned by a ContentCodec
//
// Readers check the header against the running engine before handing
// the rest of the stream to the codec.
package kmod
