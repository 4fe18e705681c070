// Package inspect runs module reads and writes for the command line and
// HTTP surfaces, and turns their outcomes into reports.
package inspect

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/danmuck/kmodctl/internal/content"
	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/danmuck/kmodctl/internal/observability"
)

type Options struct {
	Runtime         kmod.RuntimeVersionProvider
	Supported       kmod.VersionSet
	Strategy        kmod.VersionCheckStrategy
	MaxPayloadBytes int64
}

type HeaderReport struct {
	Magic          string `json:"magic" yaml:"magic"`
	MagicValid     bool   `json:"magic_valid" yaml:"magic_valid"`
	FormatVersion  uint64 `json:"format_version" yaml:"format_version"`
	RuntimeVersion string `json:"runtime_version" yaml:"runtime_version"`
	HeaderBytes    int    `json:"header_bytes" yaml:"header_bytes"`
}

type PackageSummary struct {
	Name  string `json:"name" yaml:"name"`
	Rules int    `json:"rules" yaml:"rules"`
}

type Report struct {
	Header       *HeaderReport    `json:"header,omitempty" yaml:"header,omitempty"`
	Valid        bool             `json:"valid" yaml:"valid"`
	Strategy     string           `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	PayloadBytes int              `json:"payload_bytes,omitempty" yaml:"payload_bytes,omitempty"`
	Packages     []PackageSummary `json:"packages,omitempty" yaml:"packages,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Kind         string           `json:"kind,omitempty" yaml:"kind,omitempty"`
}

func NewHeaderReport(h kmod.Header) *HeaderReport {
	return &HeaderReport{
		Magic:          hex.EncodeToString(h.Magic[:]),
		MagicValid:     bytes.Equal(h.Magic[:], kmod.Magic[:]),
		FormatVersion:  h.FormatVersion,
		RuntimeVersion: h.RuntimeVersion,
		HeaderBytes:    h.Len(),
	}
}

// Header decodes the header from r without running the compatibility
// gate.
func Header(r io.Reader) (Report, error) {
	rd := kmod.NewReader[[]byte](r, content.Raw{})
	h, err := rd.ReadHeader()
	if err != nil {
		return failed(err), err
	}
	observability.RecordHeader(h)
	return Report{Header: NewHeaderReport(h), Valid: true}, nil
}

// Verify reads a whole module from r and returns its payload.
func Verify(r io.Reader, opts Options) (Report, []byte, error) {
	f := factory[[]byte](content.Raw{MaxBytes: opts.MaxPayloadBytes}, opts)
	rep, payload, err := read(f.NewReader(r), opts.Strategy)
	if err == nil {
		rep.PayloadBytes = len(payload)
	}
	return rep, payload, err
}

// VerifyPackages reads a module whose payload is a package list.
func VerifyPackages(r io.Reader, opts Options) (Report, []content.Package, error) {
	f := factory[[]content.Package](content.Packages{}, opts)
	rep, pkgs, err := read(f.NewReader(r), opts.Strategy)
	for _, p := range pkgs {
		rep.Packages = append(rep.Packages, PackageSummary{Name: p.Name, Rules: len(p.Rules)})
	}
	return rep, pkgs, err
}

// Pack frames payload as a module for runtime and writes it to w.
func Pack(w io.Writer, payload []byte, runtime kmod.RuntimeVersionProvider) error {
	f := kmod.Factory[[]byte]{Codec: content.Raw{}, Runtime: runtime}
	err := f.NewWriter(w).WriteModule(payload)
	observability.RecordModuleWrite(err)
	return err
}

// PackPackages encodes pkgs as the payload of a module for runtime.
func PackPackages(w io.Writer, pkgs []content.Package, runtime kmod.RuntimeVersionProvider) error {
	f := kmod.Factory[[]content.Package]{Codec: content.Packages{}, Runtime: runtime}
	err := f.NewWriter(w).WriteModule(pkgs)
	observability.RecordModuleWrite(err)
	return err
}

func factory[C any](codec kmod.ContentCodec[C], opts Options) kmod.Factory[C] {
	return kmod.Factory[C]{
		Codec:     codec,
		Runtime:   opts.Runtime,
		Supported: supported(opts.Supported),
	}
}

func read[C any](rd *kmod.Reader[C], strategy kmod.VersionCheckStrategy) (Report, C, error) {
	out, err := rd.ReadModule(strategy)
	observability.RecordModuleRead(err)

	rep := Report{Strategy: strategy.String()}
	if st := rd.State(); st.HeaderDecoded {
		observability.RecordHeader(st.Header)
		rep.Header = NewHeaderReport(st.Header)
	}
	if err != nil {
		var zero C
		rep.Error = err.Error()
		rep.Kind = observability.ReadErrorKind(err)
		return rep, zero, err
	}
	rep.Valid = true
	return rep, out, nil
}

func failed(err error) Report {
	return Report{Error: err.Error(), Kind: observability.ReadErrorKind(err)}
}

func supported(s kmod.VersionSet) kmod.VersionSet {
	if len(s) == 0 {
		return kmod.DefaultVersionSet()
	}
	return s
}
