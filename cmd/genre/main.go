// Package main provides the genre CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/auvred/genre"
	"github.com/auvred/genre/internal/config"
	"github.com/auvred/genre/internal/logging"
)

// Outcomes reported with exit status 1. Every other error exits with 2.
var (
	ErrNoMatch        = errors.New("no match")
	ErrFixturesFailed = errors.New("fixture cases failed")
)

const (
	exitOK = iota
	exitNoMatch
	exitError
)

// app carries the global flags and what is derived from them.
type app struct {
	cfgFile string
	verbose bool
	engine  string
	sticky  bool
	noColor bool

	cfg    *config.Config
	log    *slog.Logger
	colors bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrFixturesFailed):
		return exitNoMatch
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "genre",
		Short: "Backtracking pattern matcher over arbitrary token streams",
		Long: `genre matches regular-expression-like patterns against text or streams of
structured events and reports capture group ranges.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./genre.yaml or $HOME/.config/genre/genre.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages to stderr")
	flags.StringVar(&a.engine, "engine", "", "matching engine: recursive or stack")
	flags.BoolVar(&a.sticky, "sticky", false, "only match at the start of each input")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(a.matchCmd())
	rootCmd.AddCommand(a.testCmd())
	rootCmd.AddCommand(a.dumpCmd())
	rootCmd.AddCommand(a.eventsCmd())

	return rootCmd
}

// setup loads the configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("engine") {
		cfg.Match.Engine = a.engine
	}
	if cmd.Flags().Changed("sticky") {
		cfg.Match.Sticky = a.sticky
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if a.noColor {
		cfg.Output.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log)
	a.colors = cfg.Output.Color && !color.NoColor
	a.log.Debug("configuration loaded", "engine", cfg.Match.Engine, "sticky", cfg.Match.Sticky)
	return nil
}

func (a *app) flags() genre.Flag {
	return a.cfg.MatchFlags()
}

func (a *app) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if !a.colors {
		c.DisableColor()
	}
	return c
}

// parse parses a textual pattern and logs the result.
func (a *app) parse(pattern string) (genre.Expr[rune], error) {
	e, err := genre.Parse(pattern)
	if err != nil {
		return nil, err
	}
	a.log.Debug("parsed pattern", "pattern", pattern, "expr", e.String())
	return e, nil
}

func (a *app) compile(pattern string) (*genre.Regexp[rune], error) {
	e, err := a.parse(pattern)
	if err != nil {
		return nil, err
	}
	re, err := genre.Compile(e, a.flags())
	if err != nil {
		return nil, err
	}
	a.log.Debug("compiled pattern", "insts", len(re.Prog().Inst), "groups", re.NumGroups())
	return re, nil
}
