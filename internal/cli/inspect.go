package cli

import (
	"os"

	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <module>",
		Short: "Print a module header without checking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
}

func runInspect(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "open module", err)
	}
	defer f.Close()

	formatter.VerboseLog("Reading header from %s", path)
	rep, readErr := inspect.Header(f)
	if err := formatter.Report(rep); err != nil {
		return err
	}
	if readErr != nil {
		return WrapExitError(ExitFailure, "inspect "+path, readErr)
	}
	return nil
}
