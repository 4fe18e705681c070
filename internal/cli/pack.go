package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/kmodctl/internal/content"
	"github.com/danmuck/kmodctl/internal/inspect"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewPackCommand creates the pack command.
func NewPackCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &gateFlags{}
	var output string
	var force, packages bool
	cmd := &cobra.Command{
		Use:   "pack <payload>",
		Short: "Frame an engine payload as a knowledge module",
		Long: `Write a module header for the current runtime followed by the payload
bytes, unchanged. The runtime version comes from --runtime-version or the
config; packing fails when it is unknown.

With --packages the input is a YAML package list, encoded as packages:

  - name: org.example.pricing
    rules:
      - name: discount
        body: <engine bytes>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(rootOpts, flags, args[0], output, force, packages, cmd)
		},
	}
	flags.registerRuntime(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "module file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	cmd.Flags().BoolVar(&packages, "packages", false, "read the input as a YAML package list")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

type packageSource struct {
	Name  string `yaml:"name"`
	Rules []struct {
		Name string `yaml:"name"`
		Body string `yaml:"body"`
	} `yaml:"rules"`
}

func parsePackages(data []byte) ([]content.Package, error) {
	var src []packageSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, err
	}
	pkgs := make([]content.Package, 0, len(src))
	for i, s := range src {
		if s.Name == "" {
			return nil, fmt.Errorf("package #%d has no name", i+1)
		}
		p := content.Package{Name: s.Name}
		for _, r := range s.Rules {
			p.Rules = append(p.Rules, content.Rule{Name: r.Name, Body: []byte(r.Body)})
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

func runPack(opts *RootOptions, flags *gateFlags, payloadPath, output string, force, packages bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if cfg, err = flags.apply(cfg); err != nil {
		return err
	}

	payload, err := os.ReadFile(payloadPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "read payload", err)
	}

	write := func(f *os.File) error {
		return inspect.Pack(f, payload, cfg.Runtime())
	}
	if packages {
		pkgs, err := parsePackages(payload)
		if err != nil {
			return WrapExitError(ExitCommandError, "parse packages", err)
		}
		write = func(f *os.File) error {
			return inspect.PackPackages(f, pkgs, cfg.Runtime())
		}
	}
	if err := writeFile(output, force, write); err != nil {
		return err
	}

	formatter.VerboseLog("Wrote %s from %s", output, payloadPath)
	f, err := os.Open(output)
	if err != nil {
		return WrapExitError(ExitCommandError, "reopen module", err)
	}
	defer f.Close()
	rep, err := inspect.Header(f)
	if err != nil {
		return WrapExitError(ExitFailure, "reread header", err)
	}
	if st, err := f.Stat(); err == nil {
		rep.PayloadBytes = int(st.Size()) - rep.Header.HeaderBytes
	}
	return formatter.Report(rep)
}

// writeFile creates path, runs write and removes the file again if write
// fails.
func writeFile(path string, force bool, write func(*os.File) error) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("%s exists (use --force)", path), nil)
		}
		return WrapExitError(ExitCommandError, "create output", err)
	}
	if err := write(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return WrapExitError(ExitFailure, "write "+path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return WrapExitError(ExitCommandError, "close output", err)
	}
	return nil
}
