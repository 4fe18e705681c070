package kmod

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// VersionCheckStrategy selects how the gate treats an unknown current
// runtime version.
type VersionCheckStrategy int

const (
	// VersionsMustMatch requires the header's runtime version to equal the
	// current runtime version. An unknown current version never matches.
	VersionsMustMatch VersionCheckStrategy = iota
	// IgnoreUnknownRuntimeVersion accepts any header when the current
	// runtime version is unknown, and otherwise behaves like
	// VersionsMustMatch. Meant for hosts without runtime introspection.
	IgnoreUnknownRuntimeVersion
)

func (s VersionCheckStrategy) String() string {
	switch s {
	case VersionsMustMatch:
		return "strict"
	case IgnoreUnknownRuntimeVersion:
		return "permissive"
	default:
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseVersionCheckStrategy accepts "strict"/"permissive" and the
// VERSIONS_MUST_MATCH/IGNORE_UNKNOWN_RUNTIME_VERSION spellings.
func ParseVersionCheckStrategy(raw string) (VersionCheckStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "strict", "versions_must_match":
		return VersionsMustMatch, nil
	case "permissive", "ignore_unknown_runtime_version":
		return IgnoreUnknownRuntimeVersion, nil
	default:
		return VersionsMustMatch, fmt.Errorf("kmod: unknown version check strategy %q", raw)
	}
}

// VersionSet is the set of format versions a reader accepts.
type VersionSet []uint64

func DefaultVersionSet() VersionSet {
	return VersionSet{CurrentFormatVersion}
}

func (s VersionSet) Contains(v uint64) bool {
	return slices.Contains(s, v)
}

// Gate decides whether a decoded header may proceed to content decoding.
type Gate struct {
	Supported VersionSet
	Runtime   RuntimeVersionProvider
	Strategy  VersionCheckStrategy
}

// Check runs the header checks in order and returns the first failure.
func (g Gate) Check(h Header) error {
	if !bytes.Equal(h.Magic[:], Magic[:]) {
		return newError(KindInvalidMagic, FieldMagic, "unexpected file magic in header: %q", h.Magic[:])
	}
	supported := g.Supported
	if supported == nil {
		supported = DefaultVersionSet()
	}
	if !supported.Contains(h.FormatVersion) {
		return newError(KindInvalidFormatVersion, FieldFormatVersion, "unsupported version of file format: %d", h.FormatVersion)
	}
	if h.RuntimeVersion == "" {
		return newError(KindInvalidHeader, FieldRuntimeVersion, "illegal runtime version in file header: must not be empty")
	}
	return g.checkRuntime(h.RuntimeVersion)
}

func (g Gate) checkRuntime(declared string) error {
	runtime := g.Runtime
	if runtime == nil {
		runtime = UnknownRuntime{}
	}
	current, known := runtime.RuntimeVersion()
	if !known && g.Strategy == IgnoreUnknownRuntimeVersion {
		return nil
	}
	if known && current == declared {
		return nil
	}
	title, titleKnown := runtime.ImplementationTitle()
	return newError(KindRuntimeVersionMismatch, FieldRuntimeVersion,
		"runtime versions must match: module was compiled for runtime %s, but current runtime is '%s' version %s",
		declared, describe(title, titleKnown), describe(current, known))
}
