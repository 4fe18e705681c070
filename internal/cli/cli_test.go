package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/danmuck/kmodctl/internal/testutil/testlog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// run executes kmodctl with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	testlog.Start(t)
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeModule(t *testing.T, runtimeVersion, payload string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, inspect.Pack(&buf, []byte(payload), kmod.StaticRuntime{Version: runtimeVersion}))
	path := filepath.Join(t.TempDir(), "rules.kmod")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// emptyConfig keeps a kmodctl.toml in the working directory out of the test.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kmodctl.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestInspectText(t *testing.T) {
	out, _, err := run(t, "-c", emptyConfig(t), "inspect", writeModule(t, "5.1.1", "payload"))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "inspect_text", []byte(out))
}

func TestInspectTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.kmod")
	require.NoError(t, os.WriteFile(path, []byte("DRLKMOD\x00\x00"), 0o600))

	out, _, err := run(t, "inspect", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, kmod.ErrTruncatedRead)
	assert.Contains(t, out, "truncated_read")
}

func TestInspectMissingFile(t *testing.T) {
	_, _, err := run(t, "inspect", filepath.Join(t.TempDir(), "nope.kmod"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyJSON(t *testing.T) {
	out, _, err := run(t, "-c", emptyConfig(t), "--format", "json",
		"verify", "--runtime-version", "5.1.1", writeModule(t, "5.1.1", "payload"))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "verify_json", []byte(out))
}

func TestVerifyMismatchText(t *testing.T) {
	out, _, err := run(t, "-c", emptyConfig(t),
		"verify", "--runtime-version", "5.0.0", "--runtime-title", "drools",
		writeModule(t, "5.1.1", "payload"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, kmod.ErrRuntimeVersionMismatch)
	newGoldie(t).Assert(t, "verify_mismatch_text", []byte(out))
}

func TestVerifyStrategyFlag(t *testing.T) {
	cfg := emptyConfig(t)
	module := writeModule(t, "5.1.1", "payload")

	_, _, err := run(t, "-c", cfg, "verify", module)
	assert.ErrorIs(t, err, kmod.ErrRuntimeVersionMismatch)

	_, _, err = run(t, "-c", cfg, "verify", "--strategy", "permissive", module)
	assert.NoError(t, err)

	_, _, err = run(t, "-c", cfg, "verify", "--strategy", "lenient", module)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifySupportedFlag(t *testing.T) {
	_, _, err := run(t, "-c", emptyConfig(t), "verify",
		"--runtime-version", "5.1.1", "--supported", "2,3", writeModule(t, "5.1.1", "payload"))
	assert.ErrorIs(t, err, kmod.ErrInvalidFormatVersion)
}

func TestVerifyUsesConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "kmodctl.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("runtime_version = \"5.1.1\"\n"), 0o600))

	_, _, err := run(t, "-c", cfg, "verify", writeModule(t, "5.1.1", "payload"))
	assert.NoError(t, err)
}

func TestPackUnpackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t)
	payload := filepath.Join(dir, "payload.bin")
	module := filepath.Join(dir, "out.kmod")
	extracted := filepath.Join(dir, "extracted.bin")
	require.NoError(t, os.WriteFile(payload, []byte{0xca, 0xfe, 0x00, 0x01}, 0o600))

	out, _, err := run(t, "-c", cfg, "pack", payload, "-o", module, "--runtime-version", "7.0.0")
	require.NoError(t, err)
	assert.Contains(t, out, "runtime version:  7.0.0")

	_, _, err = run(t, "-c", cfg, "pack", payload, "-o", module, "--runtime-version", "7.0.0")
	require.Error(t, err, "existing output needs --force")

	_, _, err = run(t, "-c", cfg, "unpack", module, "-o", extracted, "--runtime-version", "7.0.0")
	require.NoError(t, err)
	got, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe, 0x00, 0x01}, got)
}

func TestPackUnknownRuntimeLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.bin")
	module := filepath.Join(dir, "out.kmod")
	require.NoError(t, os.WriteFile(payload, []byte("p"), 0o600))

	_, _, err := run(t, "-c", emptyConfig(t), "pack", payload, "-o", module)
	require.ErrorIs(t, err, kmod.ErrInvalidHeader)
	assert.NoFileExists(t, module)
}

func TestUnpackRejectedWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "payload.bin")
	_, _, err := run(t, "-c", emptyConfig(t), "unpack", writeModule(t, "5.1.1", "payload"),
		"-o", out, "--runtime-version", "6.0.0")
	require.ErrorIs(t, err, kmod.ErrRuntimeVersionMismatch)
	assert.NoFileExists(t, out)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := run(t, "--format", "xml", "inspect", "x")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerboseWritesToStderr(t *testing.T) {
	_, stderr, err := run(t, "-v", "inspect", writeModule(t, "5.1.1", "payload"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "Reading header from")
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kmodctl.toml")

	out, _, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, _, err = run(t, "config", "init", "-o", path)
	require.Error(t, err)

	out, _, err = run(t, "-c", path, "config", "validate")
	require.NoError(t, err)
	assert.Equal(t, "config ok (strategy=strict, supported=[1])\n", out)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", nil)))
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "yaml", Writer: &buf}
	require.NoError(t, f.Report(inspect.Report{Valid: true, Strategy: "strict", PayloadBytes: 3}))
	assert.Equal(t, "valid: true\nstrategy: strict\npayload_bytes: 3\n", buf.String())
}

func TestPackAndVerifyPackages(t *testing.T) {
	dir := t.TempDir()
	cfg := emptyConfig(t)
	src := filepath.Join(dir, "packages.yaml")
	module := filepath.Join(dir, "rules.kmod")
	require.NoError(t, os.WriteFile(src, []byte(`
- name: org.example.pricing
  rules:
    - name: discount
      body: "when order > 100 then 5%"
    - name: tax
      body: "always 20%"
- name: org.example.audit
`), 0o600))

	_, _, err := run(t, "-c", cfg, "pack", "--packages", src, "-o", module, "--runtime-version", "5.1.1")
	require.NoError(t, err)

	out, _, err := run(t, "-c", cfg, "--format", "json", "verify", "--packages", "--runtime-version", "5.1.1", module)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "org.example.pricing"`)
	assert.Contains(t, out, `"rules": 2`)

	_, _, err = run(t, "-c", cfg, "verify", "--packages", "--runtime-version", "5.1.1",
		writeModule(t, "5.1.1", "not a package list"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
