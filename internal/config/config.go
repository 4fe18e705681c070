package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/kmodctl/internal/kmod"
)

const DefaultPath = "kmodctl.toml"

type Config struct {
	RuntimeTitle      string       `toml:"runtime_title"`
	RuntimeVersion    string       `toml:"runtime_version"`
	RuntimeModule     string       `toml:"runtime_module"`
	VersionCheck      string       `toml:"version_check"`
	SupportedVersions []uint64     `toml:"supported_versions"`
	Server            ServerConfig `toml:"server"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	CorsOrigins    []string `toml:"cors_origins"`
	AuthToken      string   `toml:"auth_token"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
}

func Default() Config {
	return Config{
		VersionCheck:      kmod.VersionsMustMatch.String(),
		SupportedVersions: []uint64{kmod.CurrentFormatVersion},
		Server: ServerConfig{
			Addr:           ":9300",
			CorsOrigins:    []string{"http://localhost:3000"},
			MaxUploadBytes: 64 << 20,
		},
	}
}

type fileConfig struct {
	RuntimeTitle      string   `toml:"runtime_title"`
	RuntimeVersion    string   `toml:"runtime_version"`
	RuntimeModule     string   `toml:"runtime_module"`
	VersionCheck      string   `toml:"version_check"`
	SupportedVersions []int64  `toml:"supported_versions"`
	Server            struct {
		Addr           string   `toml:"addr"`
		CorsOrigins    []string `toml:"cors_origins"`
		AuthToken      string   `toml:"auth_token"`
		MaxUploadBytes int64    `toml:"max_upload_bytes"`
	} `toml:"server"`
}

// Load reads path and applies the keys it defines over Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("runtime_title") {
		cfg.RuntimeTitle = strings.TrimSpace(raw.RuntimeTitle)
	}
	if meta.IsDefined("runtime_version") {
		cfg.RuntimeVersion = strings.TrimSpace(raw.RuntimeVersion)
	}
	if meta.IsDefined("runtime_module") {
		cfg.RuntimeModule = strings.TrimSpace(raw.RuntimeModule)
	}
	if meta.IsDefined("version_check") {
		cfg.VersionCheck = strings.TrimSpace(raw.VersionCheck)
	}
	if meta.IsDefined("supported_versions") {
		versions := make([]uint64, 0, len(raw.SupportedVersions))
		for _, v := range raw.SupportedVersions {
			if v < 0 {
				return Config{}, fmt.Errorf("config parse failed (%s): supported_versions: negative version %d", path, v)
			}
			versions = append(versions, uint64(v))
		}
		cfg.SupportedVersions = versions
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeOrigins(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "auth_token") {
		cfg.Server.AuthToken = raw.Server.AuthToken
	}
	if meta.IsDefined("server", "max_upload_bytes") {
		cfg.Server.MaxUploadBytes = raw.Server.MaxUploadBytes
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, err := kmod.ParseVersionCheckStrategy(cfg.VersionCheck); err != nil {
		return fmt.Errorf("version_check: %w", err)
	}
	if len(cfg.SupportedVersions) == 0 {
		return fmt.Errorf("supported_versions must not be empty")
	}
	if len(cfg.RuntimeVersion) > kmod.MaxStringLen {
		return fmt.Errorf("runtime_version longer than %d bytes", kmod.MaxStringLen)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	return nil
}

// Strategy returns the configured version check strategy.
func (c Config) Strategy() kmod.VersionCheckStrategy {
	s, _ := kmod.ParseVersionCheckStrategy(c.VersionCheck)
	return s
}

// Runtime builds the provider for the configured engine runtime. A pinned
// runtime_version wins over runtime_module.
func (c Config) Runtime() kmod.RuntimeVersionProvider {
	if c.RuntimeVersion != "" {
		return kmod.StaticRuntime{Title: c.RuntimeTitle, Version: c.RuntimeVersion}
	}
	if c.RuntimeModule != "" {
		return kmod.NewBuildInfoRuntime(c.RuntimeModule)
	}
	return kmod.StaticRuntime{Title: c.RuntimeTitle}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	return out
}
