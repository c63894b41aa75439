package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/auvred/genre"
)

func (a *app) dumpCmd() *cobra.Command {
	var wrapped bool

	cmd := &cobra.Command{
		Use:   "dump PATTERN",
		Short: "Print the expression tree and compiled program of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDump(cmd.OutOrStdout(), args[0], wrapped)
		},
	}

	cmd.Flags().BoolVarP(&wrapped, "wrapped", "w", false, "show the program as searched, with group 0 and the leftmost-match prefix")

	return cmd
}

func (a *app) runDump(w io.Writer, pattern string, wrapped bool) error {
	e, err := a.parse(pattern)
	if err != nil {
		return err
	}

	var prog *genre.Prog[rune]
	if wrapped {
		re, err := genre.Compile(e, a.flags())
		if err != nil {
			return err
		}
		prog = re.Prog()
	} else {
		if prog, err = genre.CompileProg(e); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "expr: %s\n", e)

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"PC", "Instruction"})
	for pc, inst := range prog.Inst {
		tbl.AppendRow(table.Row{pc, inst.String()})
	}
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "%d instructions, %d capture slots\n", len(prog.Inst), prog.NumSlots)
	return nil
}
