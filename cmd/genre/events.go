package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/auvred/genre/alphabet"
	"github.com/auvred/genre/fixture"
)

var ErrAlphabetRequired = errors.New("--alphabet is required")

func (a *app) eventsCmd() *cobra.Command {
	var alphabetFile string

	cmd := &cobra.Command{
		Use:   "events --alphabet FILE PATTERN [EVENTS.jsonl]",
		Short: "Match a pattern against a stream of JSON events",
		Long: `Match a pattern against JSON events, one object per line, read from a file
or stdin. Pattern characters are symbols of the alphabet file, which assigns
a CEL expression over "event" to each symbol. Every non-overlapping match is
printed as its capture group ranges, in event indices.

Example alphabet:
  symbols:
    e: event.level == "error"
    w: event.level == "warn"

  genre events --alphabet levels.yaml 'w+e' app.jsonl`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if alphabetFile == "" {
				return ErrAlphabetRequired
			}
			in := cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return a.runEvents(cmd.OutOrStdout(), alphabetFile, args[0], in)
		},
	}

	cmd.Flags().StringVar(&alphabetFile, "alphabet", "", "alphabet file mapping symbols to CEL expressions")

	return cmd
}

func (a *app) runEvents(w io.Writer, alphabetFile, pattern string, in io.Reader) error {
	alpha, err := alphabet.Load(alphabetFile)
	if err != nil {
		return err
	}
	a.log.Debug("loaded alphabet", "file", alphabetFile, "symbols", string(alpha.Symbols()))

	re, err := alpha.Compile(pattern, a.flags())
	if err != nil {
		return err
	}
	events, err := alphabet.ReadEvents(in)
	if err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	a.log.Debug("read events", "count", len(events))

	matches := re.FindAllMatches(events, -1)
	for _, m := range matches {
		fmt.Fprintln(w, fixture.FormatRanges(m.Ranges()))
	}
	if len(matches) == 0 {
		return ErrNoMatch
	}
	return nil
}
