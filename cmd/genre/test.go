package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/auvred/genre/fixture"
)

func (a *app) testCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "test FILE...",
		Short: "Run fixture files",
		Long: `Run conformance fixture files and report the cases whose result differs
from the expected ranges. Files ending in .yaml or .yml are read as YAML,
anything else as lines of "<index> <pattern> <input> <ranges>".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTest(cmd.OutOrStdout(), args, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list passing cases too")

	return cmd
}

func (a *app) runTest(w io.Writer, files []string, all bool) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "#", "Pattern", "Input", "Want", "Got", "Status"})

	pass := a.paint(color.FgGreen)
	fail := a.paint(color.FgRed)

	passed, failed := 0, 0
	for _, file := range files {
		cases, err := fixture.LoadFile(file)
		if err != nil {
			return err
		}
		a.log.Debug("loaded fixtures", "file", file, "cases", len(cases))

		for _, res := range fixture.CheckAll(cases, a.flags()) {
			c := res.Case
			want := fixture.FormatRanges(c.Ranges)
			if c.NoMatch {
				want = "-"
			}
			status := pass.Sprint("ok")
			if res.Passed() {
				passed++
				if !all {
					continue
				}
			} else {
				failed++
				status = fail.Sprint("FAIL")
				if res.Err != nil {
					status = fail.Sprint(res.Err.Error())
				}
			}
			tbl.AppendRow(table.Row{file, c.Index, c.Pattern, c.Input, want, res.GotString(), status})
		}
	}

	if tbl.Length() > 0 {
		fmt.Fprintln(w, tbl.Render())
	}
	fmt.Fprintf(w, "%d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFixturesFailed, failed, passed+failed)
	}
	return nil
}
