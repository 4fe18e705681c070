package cli

import (
	"os"

	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &gateFlags{}
	var packages bool
	cmd := &cobra.Command{
		Use:   "verify <module>",
		Short: "Check a module against the current runtime",
		Long: `Decode the header, run the compatibility checks and read the payload.

Exits 1 when the module is rejected. With --strategy permissive an unknown
current runtime is accepted; a known one must still match exactly.
With --packages the payload must decode as a package list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, flags, args[0], packages, cmd)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&packages, "packages", false, "decode the payload as a package list")
	return cmd
}

func runVerify(opts *RootOptions, flags *gateFlags, path string, packages bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = flags.apply(cfg); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open module", err)
	}
	defer f.Close()

	formatter.VerboseLog("Verifying %s (strategy=%s, supported=%v)", path, cfg.Strategy(), cfg.SupportedVersions)
	var rep inspect.Report
	var readErr error
	if packages {
		rep, _, readErr = inspect.VerifyPackages(f, verifyOptions(cfg))
	} else {
		rep, _, readErr = inspect.Verify(f, verifyOptions(cfg))
	}
	if err := formatter.Report(rep); err != nil {
		return err
	}
	if readErr != nil {
		return WrapExitError(ExitFailure, "verify "+path, readErr)
	}
	return nil
}
