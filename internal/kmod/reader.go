package kmod

import "io"

// Stage is a Reader's position in the read state machine.
type Stage int

const (
	StageStart Stage = iota
	StageHeaderDecoded
	StageHeaderValidated
	StageContentDelegated
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageHeaderDecoded:
		return "header_decoded"
	case StageHeaderValidated:
		return "header_validated"
	case StageContentDelegated:
		return "content_delegated"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReadState is a snapshot of a Reader. Header is valid once
// HeaderDecoded is true. FailedKind is KindNone for content codec
// failures.
type ReadState struct {
	Stage         Stage
	HeaderDecoded bool
	Header        Header
	FailedKind    Kind
	Err           error
}

// Reader reads one module from a stream. It is not safe for concurrent use.
type Reader[C any] struct {
	r         io.Reader
	codec     ContentCodec[C]
	runtime   RuntimeVersionProvider
	supported VersionSet
	lc        LoadContext

	state      ReadState
	content    C
	contentErr error
	delegated  bool
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	runtime   RuntimeVersionProvider
	supported VersionSet
	lc        LoadContext
}

func WithRuntime(p RuntimeVersionProvider) ReaderOption {
	return func(o *readerOptions) { o.runtime = p }
}

func WithSupportedVersions(versions ...uint64) ReaderOption {
	return func(o *readerOptions) { o.supported = append(VersionSet(nil), versions...) }
}

func WithLoadContext(lc LoadContext) ReaderOption {
	return func(o *readerOptions) { o.lc = lc }
}

func NewReader[C any](r io.Reader, codec ContentCodec[C], opts ...ReaderOption) *Reader[C] {
	o := readerOptions{runtime: UnknownRuntime{}, supported: DefaultVersionSet()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reader[C]{
		r:         r,
		codec:     codec,
		runtime:   o.runtime,
		supported: o.supported,
		lc:        o.lc,
	}
}

// SetSupportedVersions replaces the accepted format versions.
func (rd *Reader[C]) SetSupportedVersions(versions ...uint64) {
	rd.supported = append(VersionSet(nil), versions...)
}

// State returns a snapshot of the reader's progress.
func (rd *Reader[C]) State() ReadState {
	return rd.state
}

// ReadHeader decodes the header without validating it. The stream is read
// at most once; later calls return the same header or error.
func (rd *Reader[C]) ReadHeader() (Header, error) {
	if rd.state.HeaderDecoded {
		return rd.state.Header, nil
	}
	if rd.state.Stage == StageFailed {
		return Header{}, rd.state.Err
	}
	h, err := DecodeHeader(rd.r)
	if err != nil {
		rd.fail(err)
		return Header{}, err
	}
	rd.state = ReadState{Stage: StageHeaderDecoded, HeaderDecoded: true, Header: h}
	return h, nil
}

// ReadModule validates the header and decodes the content. strategy
// defaults to VersionsMustMatch.
//
// A header that fails validation stays decoded, so the call may be retried
// with another strategy. Content is decoded once: after success the same
// content is returned again, after a codec failure the same error is.
func (rd *Reader[C]) ReadModule(strategy ...VersionCheckStrategy) (C, error) {
	var zero C
	if rd.delegated {
		return rd.content, rd.contentErr
	}

	h, err := rd.ReadHeader()
	if err != nil {
		return zero, err
	}

	gate := Gate{Supported: rd.supported, Runtime: rd.runtime}
	if len(strategy) > 0 {
		gate.Strategy = strategy[0]
	}
	if err := gate.Check(h); err != nil {
		rd.fail(err)
		return zero, err
	}
	rd.state = ReadState{Stage: StageHeaderValidated, HeaderDecoded: true, Header: h}

	rd.state.Stage = StageContentDelegated
	rd.delegated = true
	content, err := rd.codec.Decode(rd.r, rd.lc)
	if err != nil {
		rd.contentErr = err
		rd.fail(err)
		return zero, err
	}
	rd.content = content
	rd.state.Stage = StageDone
	return content, nil
}

func (rd *Reader[C]) fail(err error) {
	rd.state.Stage = StageFailed
	rd.state.FailedKind = KindOf(err)
	rd.state.Err = err
}
