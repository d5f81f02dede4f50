// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command earasm is the command-line front end for the assembler and
// linker in package ear: a one-shot driver when given command files on
// argv, or an interactive REPL when run with no arguments.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"

	"github.com/earasm/earasm/internal/ear"
	"github.com/earasm/earasm/internal/pegasus"
)

// App holds everything a single earasm session accumulates: the assembler
// (fed incrementally by "load"), the segments it produced ("assemble"),
// the linked container image ("link"), and the symbol names available for
// lookup and completion once assembly has succeeded.
type App struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *cmd.Selection

	layout      pegasus.Layout
	searchPaths []string
	dumpSymbols io.Writer

	asm     *ear.Assembler
	results []ear.SegmentResult
	linked  []byte

	onlySegment string // set by the -s flag; restricts "write" and "segments" to one segment
	verbose     bool   // set by the -v flag; trace output goes to stderr

	names *prefixtree.Tree[int] // exported-symbol name -> index into the last Exports() call, for "symbols" lookup
	exps  []exportedSymbol
}

type exportedSymbol struct {
	Name  string
	Value int
}

// NewApp constructs a session against the given segment layout. searchPaths
// is consulted by ".import" the same way ear.Assembler.search does;
// dumpSymbols, if non-nil, receives one "name = 0xVALUE" line per global
// label (exported or not) as "assemble" binds it.
func NewApp(layout pegasus.Layout, searchPaths []string, dumpSymbols io.Writer) (*App, error) {
	a, err := ear.New(layout, searchPaths, dumpSymbols)
	if err != nil {
		return nil, err
	}
	return &App{
		layout:      layout,
		searchPaths: searchPaths,
		dumpSymbols: dumpSymbols,
		asm:         a,
	}, nil
}

// RunCommands accepts earasm commands from a reader and writes output to w.
// If interactive, a prompt precedes each read.
func (a *App) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	a.input = bufio.NewScanner(r)
	a.output = bufio.NewWriter(w)
	a.interactive = interactive

	if interactive {
		a.println("earasm ready. Type 'help' for a command list.")
	}

	for {
		a.prompt()

		line, err := a.getLine()
		if err != nil {
			break
		}

		if err := a.processCommand(line); err != nil {
			break
		}
	}
}

func (a *App) processCommand(line string) error {
	var sel cmd.Selection
	if line != "" {
		var err error
		sel, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			a.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			a.println("Command is ambiguous.")
			return nil
		case err != nil:
			a.printf("ERROR: %v.\n", err)
			return nil
		}
	} else if a.lastCmd != nil {
		sel = *a.lastCmd
	}

	if sel.Command == nil {
		return nil
	}
	if sel.Command.Data == nil && sel.Command.Subtree != nil {
		a.displayCommands(sel.Command.Subtree)
		return nil
	}

	a.lastCmd = &sel

	handler := sel.Command.Data.(func(*App, cmd.Selection) error)
	return handler(a, sel)
}

// Break cancels a pending interactive prompt. There is no running state
// machine behind it, so there is nothing else to interrupt.
func (a *App) Break() {
	a.println()
	if a.interactive {
		a.println("Type 'quit' to exit.")
		a.prompt()
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.output, format, args...)
	a.flush()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.output, args...)
	a.flush()
}

func (a *App) flush() {
	a.output.Flush()
}

func (a *App) getLine() (string, error) {
	if a.input.Scan() {
		return a.input.Text(), nil
	}
	if a.input.Err() != nil {
		return "", a.input.Err()
	}
	return "", io.EOF
}

func (a *App) prompt() {
	if !a.interactive {
		return
	}
	a.printf("* ")
}

func (a *App) displayUsage(c *cmd.Command) {
	if c.Usage != "" {
		a.printf("Usage: %s\n", c.Usage)
	}
}

func (a *App) displayCommands(t *cmd.Tree) {
	a.printf("%s commands:\n", t.Title)
	for _, c := range t.Commands {
		if c.Brief != "" {
			a.printf("    %-12s  %s\n", c.Name, c.Brief)
		}
	}
	a.println()
}

func (a *App) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		a.displayCommands(cmds)
		return nil
	}
	sel, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		a.printf("%v\n", err)
		return nil
	}
	if sel.Command.Subtree != nil {
		a.displayCommands(sel.Command.Subtree)
		return nil
	}
	if sel.Command.Usage != "" {
		a.printf("Usage: %s\n\n", sel.Command.Usage)
	}
	if sel.Command.Description != "" {
		a.printf("%s\n", sel.Command.Description)
	} else if sel.Command.Brief != "" {
		a.printf("%s.\n", sel.Command.Brief)
	}
	return nil
}

func (a *App) cmdQuit(c cmd.Selection) error {
	return errors.New("exiting program")
}

func (a *App) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		a.displayUsage(c.Command)
		return nil
	}

	filename := c.Args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		a.printf("Failed to read '%s': %v\n", filename, err)
		return nil
	}

	if err := a.asm.AddInput(string(data), filename); err != nil {
		a.printf("%v\n", err)
		return nil
	}

	a.printf("Loaded '%s'.\n", filename)
	return nil
}

func (a *App) cmdAssemble(c cmd.Selection) error {
	results, err := a.asm.Assemble()
	if err != nil {
		a.printf("Assembly failed: %v\n", err)
		return nil
	}
	a.results = results
	a.linked = nil

	exports, err := a.asm.Exports()
	if err != nil {
		a.printf("%v\n", err)
		return nil
	}
	a.exps = a.exps[:0]
	a.names = prefixtree.New[int]()
	for i, e := range exports {
		a.exps = append(a.exps, exportedSymbol{Name: e.Name, Value: e.Value})
		a.names.Add(e.Name, i)
	}

	a.printf("Assembled %d segment(s).\n", len(results))
	return nil
}

func (a *App) cmdLink(c cmd.Selection) error {
	if a.results == nil {
		a.println("Nothing to link. Run 'assemble' first.")
		return nil
	}

	l := pegasus.NewLinker(a.layout)
	if a.verbose {
		l.SetTrace(os.Stderr)
	}
	for _, r := range a.results {
		if err := l.AddSegment(r.Name, r.VMAddr, r.VMSize, r.Data); err != nil {
			a.printf("%v\n", err)
			return nil
		}
	}
	for _, e := range a.exps {
		l.AddSymbol(e.Name, uint16(e.Value))
	}
	if pc, dpc, ok := a.asm.ResolveEntrypoint(); ok {
		regs := map[string]uint16{"PC": uint16(pc)}
		if dpc != 0 {
			regs["DPC"] = uint16(dpc)
		}
		l.AddEntrypoint(regs)
	}

	data, err := l.LinkBinary()
	if err != nil {
		a.printf("Linking failed: %v\n", err)
		return nil
	}
	a.linked = data
	a.printf("Linked %d byte image.\n", len(data))
	return nil
}

func (a *App) cmdWrite(c cmd.Selection) error {
	if len(c.Args) < 1 {
		a.displayUsage(c.Command)
		return nil
	}
	filename := c.Args[0]

	if a.onlySegment != "" {
		for _, r := range a.results {
			if r.Name == a.onlySegment {
				if err := os.WriteFile(filename, r.Data, 0644); err != nil {
					a.printf("Failed to write '%s': %v\n", filename, err)
					return nil
				}
				a.printf("Wrote %d bytes of segment %s to '%s'.\n", len(r.Data), r.Name, filename)
				return nil
			}
		}
		a.printf("No assembled segment named %s.\n", a.onlySegment)
		return nil
	}

	if a.linked == nil {
		a.println("Nothing to write. Run 'link' first (or pass -s to dump a single segment).")
		return nil
	}
	if err := os.WriteFile(filename, a.linked, 0644); err != nil {
		a.printf("Failed to write '%s': %v\n", filename, err)
		return nil
	}
	a.printf("Wrote %d bytes to '%s'.\n", len(a.linked), filename)
	return nil
}

func (a *App) cmdSymbols(c cmd.Selection) error {
	if len(a.exps) == 0 {
		a.println("No symbols. Run 'assemble' first.")
		return nil
	}

	if len(c.Args) == 0 {
		for _, e := range a.exps {
			a.printf("   %-24s 0x%X\n", e.Name, e.Value)
		}
		return nil
	}

	prefix := c.Args[0]
	if i, err := a.names.FindValue(prefix); err == nil {
		a.printf("   %-24s 0x%X\n", a.exps[i].Name, a.exps[i].Value)
		return nil
	}

	var suggestions []string
	for _, e := range a.exps {
		if strings.HasPrefix(e.Name, prefix) {
			suggestions = append(suggestions, e.Name)
		}
	}
	if len(suggestions) == 0 {
		a.printf("No symbol matches '%s'.\n", prefix)
		return nil
	}
	a.printf("Did you mean: %s?\n", strings.Join(suggestions, ", "))
	return nil
}

func (a *App) cmdSegments(c cmd.Selection) error {
	if len(a.results) == 0 {
		a.println("No segments. Run 'assemble' first.")
		return nil
	}
	for _, r := range a.results {
		if a.onlySegment != "" && r.Name != a.onlySegment {
			continue
		}
		a.printf("   %-10s vmaddr=0x%04X vmsize=0x%X len=%d\n", r.Name, r.VMAddr, r.VMSize, len(r.Data))
	}
	return nil
}
