package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/auvred/genre"
	"github.com/auvred/genre/fixture"
)

func (a *app) matchCmd() *cobra.Command {
	var highlight, global bool

	cmd := &cobra.Command{
		Use:   "match PATTERN [INPUT...]",
		Short: "Match a pattern against inputs",
		Long: `Match a textual pattern against each input and print the capture group
ranges of the leftmost match, or "-" if there is none. Inputs are taken from
the arguments, or line by line from stdin when there are none.

Examples:
  genre match 'a(b+)' xabbc          # (1,4)(2,4)
  genre match -g 'a+' aabaaa         # (0,2) (3,6)
  genre match --highlight 'b+' < file`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs := args[1:]
			if len(inputs) == 0 {
				var err error
				if inputs, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			return a.runMatch(cmd.OutOrStdout(), args[0], inputs, highlight, global)
		},
	}

	cmd.Flags().BoolVar(&highlight, "highlight", false, "print the input with matches marked instead of ranges")
	cmd.Flags().BoolVarP(&global, "global", "g", false, "report every non-overlapping match")

	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func (a *app) runMatch(w io.Writer, pattern string, inputs []string, highlight, global bool) error {
	re, err := a.compile(pattern)
	if err != nil {
		return err
	}

	matched := 0
	for _, input := range inputs {
		src := []rune(input)
		limit := 1
		if global {
			limit = -1
		}
		matches := re.FindAllMatches(src, limit)
		a.log.Debug("matched input", "input", input, "matches", len(matches))
		if len(matches) > 0 {
			matched++
		}

		if highlight {
			fmt.Fprintln(w, a.highlight(src, matches))
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintln(w, "-")
			continue
		}
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = fixture.FormatRanges(m.Ranges())
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}

	if matched == 0 {
		return ErrNoMatch
	}
	return nil
}

// highlight marks the whole-match span of every match. Without colors the
// spans are bracketed.
func (a *app) highlight(src []rune, matches []*genre.Match[rune]) string {
	mark := a.paint(color.FgRed, color.Bold)
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		g := m.Groups[0]
		b.WriteString(string(src[pos:g.Start]))
		if a.colors {
			b.WriteString(mark.Sprint(string(g.Data())))
		} else {
			b.WriteString("[" + string(g.Data()) + "]")
		}
		pos = g.End
	}
	b.WriteString(string(src[pos:]))
	return b.String()
}
