package kmod

import "io"

// LoadContext is passed through to the content codec untouched. Codecs
// use it to resolve whatever types the payload refers to.
type LoadContext any

// ContentCodec serializes module content after the header. Errors it
// returns reach the caller unchanged.
type ContentCodec[C any] interface {
	Decode(r io.Reader, lc LoadContext) (C, error)
	Encode(w io.Writer, content C) error
}
