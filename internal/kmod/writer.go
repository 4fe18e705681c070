package kmod

import "io"

// Writer writes one module to a stream. The header always carries the
// current format version and the current runtime version.
type Writer[C any] struct {
	w       io.Writer
	codec   ContentCodec[C]
	runtime RuntimeVersionProvider
}

func NewWriter[C any](w io.Writer, codec ContentCodec[C], runtime RuntimeVersionProvider) *Writer[C] {
	if runtime == nil {
		runtime = UnknownRuntime{}
	}
	return &Writer[C]{w: w, codec: codec, runtime: runtime}
}

// WriteModule writes the header followed by the encoded content. Nothing
// is written when the current runtime version is unknown, since such a
// module could never be read back.
func (wr *Writer[C]) WriteModule(content C) error {
	version, ok := wr.runtime.RuntimeVersion()
	if !ok || version == "" {
		return newError(KindInvalidHeader, FieldRuntimeVersion, "current runtime version is unknown; cannot write module header")
	}
	if err := EncodeHeader(wr.w, version); err != nil {
		return err
	}
	return wr.codec.Encode(wr.w, content)
}
