package cli

import (
	"github.com/danmuck/kmodctl/internal/config"
	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/spf13/cobra"
)

// gateFlags override the configured runtime and compatibility policy.
type gateFlags struct {
	strategy       string
	supported      []uint
	runtimeVersion string
	runtimeTitle   string
}

func (g *gateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.strategy, "strategy", "", "version check strategy (strict|permissive), overrides config")
	cmd.Flags().UintSliceVar(&g.supported, "supported", nil, "accepted format versions, overrides config")
	g.registerRuntime(cmd)
}

func (g *gateFlags) registerRuntime(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.runtimeVersion, "runtime-version", "", "current engine runtime version, overrides config")
	cmd.Flags().StringVar(&g.runtimeTitle, "runtime-title", "", "current engine implementation title, overrides config")
}

func (g *gateFlags) apply(cfg config.Config) (config.Config, error) {
	if g.strategy != "" {
		if _, err := kmod.ParseVersionCheckStrategy(g.strategy); err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "invalid --strategy", err)
		}
		cfg.VersionCheck = g.strategy
	}
	if len(g.supported) > 0 {
		cfg.SupportedVersions = make([]uint64, 0, len(g.supported))
		for _, v := range g.supported {
			cfg.SupportedVersions = append(cfg.SupportedVersions, uint64(v))
		}
	}
	if g.runtimeVersion != "" {
		cfg.RuntimeVersion = g.runtimeVersion
	}
	if g.runtimeTitle != "" {
		cfg.RuntimeTitle = g.runtimeTitle
	}
	return cfg, nil
}

func verifyOptions(cfg config.Config) inspect.Options {
	return inspect.Options{
		Runtime:   cfg.Runtime(),
		Supported: cfg.SupportedVersions,
		Strategy:  cfg.Strategy(),
	}
}
