package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/reactive/internal/config"
	"github.com/vango-dev/reactive/internal/errors"
	"github.com/vango-dev/reactive/pkg/reactive"
	"golang.org/x/term"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┬┬  ┬┌─┐
  ├┬┘├┤ ├─┤│   │ │└┐┌┘├┤
  ┴└─└─┘┴ ┴└─┘ ┴ ┴ └┘ └─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(errors.Classify(err, "L003"))
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by all commands.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "reactive",
		Short: "Tools for the fine-grained reactive runtime",
		Long: `reactive is the companion CLI of the reactive runtime.

It runs propagation benchmarks, serves a live inspector for a demo
store and exports materialized state snapshots:

  • bench      measure write latency and recomputation work
  • inspect    browse collections, stats and metrics over HTTP
  • snapshot   write the demo store as JSON to stdout, disk or S3

Settings are read from reactive.json, searched upwards from the
working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureOutput(g, term.IsTerminal(int(os.Stderr.Fd())))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to reactive.json (default: search from working directory)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from reactive.json)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: text or json (default from reactive.json)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		benchCmd(g),
		inspectCmd(g),
		snapshotCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// configureOutput picks colors and the error style. JSON logs get JSON
// errors; a redirected stderr gets one plain line per error.
func configureOutput(g *globalFlags, tty bool) {
	if g.noColor || !tty {
		errors.DisableColors()
	}
	switch {
	case g.logFormat == "json":
		errors.SetStyle(errors.StyleJSON)
	case !tty:
		errors.SetStyle(errors.StyleCompact)
	}
}

// load resolves the configuration and builds the logger. Flag overrides
// are validated like file values.
func (g *globalFlags) load(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, nil, err
	}

	if g.logLevel != "" {
		cfg.Runtime.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Runtime.LogFormat = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, cfg.Runtime.Logger(logOut), nil
}

// configureRuntime installs the runtime settings of cfg with the given hooks.
func configureRuntime(cfg *config.Config, logger *slog.Logger, hooks reactive.Hooks) {
	rc := cfg.Runtime.Reactive(logger.With("component", "reactive"))
	rc.Hooks = hooks
	reactive.Configure(rc)
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// mark colors a status symbol unless colors are off.
func mark(code, symbol string) string {
	if !errors.ColorsEnabled() {
		return symbol
	}
	return code + symbol + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", mark("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}
