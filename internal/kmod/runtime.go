package kmod

import "runtime/debug"

// RuntimeVersionProvider reports the engine runtime the current process
// uses. ok is false when the value cannot be determined.
type RuntimeVersionProvider interface {
	RuntimeVersion() (version string, ok bool)
	ImplementationTitle() (title string, ok bool)
}

// StaticRuntime reports fixed values. Empty fields are unknown.
type StaticRuntime struct {
	Title   string
	Version string
}

func (s StaticRuntime) RuntimeVersion() (string, bool) {
	return s.Version, s.Version != ""
}

func (s StaticRuntime) ImplementationTitle() (string, bool) {
	return s.Title, s.Title != ""
}

// UnknownRuntime never knows the runtime.
type UnknownRuntime struct{}

func (UnknownRuntime) RuntimeVersion() (string, bool)      { return "", false }
func (UnknownRuntime) ImplementationTitle() (string, bool) { return "", false }

// BuildInfoRuntime resolves the version of ModulePath from the binary's
// embedded build information. Binaries built without module support, and
// modules replaced by a local directory, report unknown.
type BuildInfoRuntime struct {
	ModulePath string

	readBuildInfo func() (*debug.BuildInfo, bool)
}

func NewBuildInfoRuntime(modulePath string) BuildInfoRuntime {
	return BuildInfoRuntime{ModulePath: modulePath, readBuildInfo: debug.ReadBuildInfo}
}

func (b BuildInfoRuntime) module() (*debug.Module, bool) {
	read := b.readBuildInfo
	if read == nil {
		read = debug.ReadBuildInfo
	}
	info, ok := read()
	if !ok || info == nil || b.ModulePath == "" {
		return nil, false
	}
	if info.Main.Path == b.ModulePath {
		return &info.Main, true
	}
	for _, dep := range info.Deps {
		if dep.Path != b.ModulePath {
			continue
		}
		if dep.Replace != nil {
			return dep.Replace, true
		}
		return dep, true
	}
	return nil, false
}

func (b BuildInfoRuntime) RuntimeVersion() (string, bool) {
	m, ok := b.module()
	if !ok || m.Version == "" || m.Version == "(devel)" {
		return "", false
	}
	return m.Version, true
}

func (b BuildInfoRuntime) ImplementationTitle() (string, bool) {
	m, ok := b.module()
	if !ok {
		return "", false
	}
	return m.Path, true
}

func describe(v string, ok bool) string {
	if !ok {
		return "<unknown>"
	}
	return v
}
