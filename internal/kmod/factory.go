package kmod

import "io"

// Factory builds readers and writers that share a runtime provider,
// supported versions and load context.
type Factory[C any] struct {
	Codec       ContentCodec[C]
	Runtime     RuntimeVersionProvider
	Supported   VersionSet
	LoadContext LoadContext
}

func (f Factory[C]) NewReader(r io.Reader) *Reader[C] {
	opts := []ReaderOption{WithRuntime(f.runtime()), WithLoadContext(f.LoadContext)}
	if len(f.Supported) > 0 {
		opts = append(opts, WithSupportedVersions(f.Supported...))
	}
	return NewReader(r, f.Codec, opts...)
}

func (f Factory[C]) NewWriter(w io.Writer) *Writer[C] {
	return NewWriter(w, f.Codec, f.runtime())
}

func (f Factory[C]) runtime() RuntimeVersionProvider {
	if f.Runtime == nil {
		return UnknownRuntime{}
	}
	return f.Runtime
}
