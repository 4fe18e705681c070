package cli

import (
	"os"

	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/spf13/cobra"
)

// NewUnpackCommand creates the unpack command.
func NewUnpackCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &gateFlags{}
	var output string
	var force bool
	cmd := &cobra.Command{
		Use:   "unpack <module>",
		Short: "Verify a module and extract its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnpack(rootOpts, flags, args[0], output, force, cmd)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "payload file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runUnpack(opts *RootOptions, flags *gateFlags, path, output string, force bool, cmd *cobra.Command) error {
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

	rep, payload, readErr := inspect.Verify(f, verifyOptions(cfg))
	if readErr != nil {
		if err := formatter.Report(rep); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "verify "+path, readErr)
	}

	if err := writeFile(output, force, func(out *os.File) error {
		_, err := out.Write(payload)
		return err
	}); err != nil {
		return err
	}
	formatter.VerboseLog("Extracted %d payload bytes to %s", len(payload), output)
	return formatter.Report(rep)
}
