// Command nativeprobe shows how native libraries are located and loaded on
// the current machine.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	native "github.com/amikos-tech/pure-native"
)

type options struct {
	configPath string
	workDir    string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "nativeprobe",
		Short:         "Inspect native library resolution",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML or YAML loader configuration")
	root.PersistentFlags().StringVarP(&opts.workDir, "workdir", "w", "", "directory the search path is rooted at")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every probe")

	root.AddCommand(newInfoCmd(opts), newFindCmd(opts), newResolveCmd(opts))
	return root
}

func (o *options) loader() (*native.Loader, error) {
	logger := zap.NewNop()
	if o.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, errors.Wrap(err, "failed to create logger")
		}
		zap.ReplaceGlobals(logger)
	}

	loaderOpts := []native.Option{native.WithLogger(logger)}
	if o.configPath != "" {
		cfg, err := native.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		loaderOpts = append(loaderOpts, native.WithConfig(cfg))
	}
	loaderOpts = append(loaderOpts, native.WithConfig(native.ConfigFromEnv()))
	if o.workDir != "" {
		loaderOpts = append(loaderOpts, native.WithWorkingDirectory(o.workDir))
	}
	return native.New(loaderOpts...)
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print platform, runtime identifier and search directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.loader()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(l.Info())
		},
	}
}

func newFindCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "find <name>",
		Short: "Print the bundled file that would satisfy a logical library name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.loader()
			if err != nil {
				return err
			}
			dirs, err := l.SearchDirectories()
			if err != nil {
				return err
			}
			for _, dir := range dirs {
				if path, ok := l.FindLibraryFile(dir, args[0]); ok {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
					return err
				}
			}
			return errors.Errorf("no bundled file for %s in %v", args[0], dirs)
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name> [symbol...]",
		Short: "Load a library the way an import is resolved and look up symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.loader()
			if err != nil {
				return err
			}
			lib, err := l.Open(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = lib.Close()
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s => %s\n", args[0], lib.Path())
			for _, symbol := range args[1:] {
				addr, err := lib.Symbol(symbol)
				if err != nil {
					return err
				}
				if addr.IsNull() {
					fmt.Fprintf(out, "  %s: not found\n", symbol)
					continue
				}
				fmt.Fprintf(out, "  %s: %#x\n", symbol, uintptr(addr))
			}
			return nil
		},
	}
}
