// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree("earasm")
	root.AddCommand(cmd.Command{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*App).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:  "load",
		Brief: "Load and parse a source file",
		Description: "Read the named source file, run it through the parser," +
			" and route its items into the segments declared by the active" +
			" layout. May be repeated; a file that .imports another is only" +
			" ever added once.",
		Usage: "load <filename>",
		Data:  (*App).cmdLoad,
	})
	root.AddCommand(cmd.Command{
		Name:  "assemble",
		Brief: "Run both assembly passes over loaded sources",
		Description: "Assign addresses to every loaded item, resolve symbols," +
			" and emit the bytes of every segment. Must be run again after" +
			" any further 'load'.",
		Usage: "assemble",
		Data:  (*App).cmdAssemble,
	})
	root.AddCommand(cmd.Command{
		Name:  "link",
		Brief: "Link assembled segments into a container image",
		Description: "Compose the segments produced by the last 'assemble'," +
			" the resolved export symbols, and the layout's entrypoint into" +
			" a single PEGASUS container image, ready for 'write'.",
		Usage: "link",
		Data:  (*App).cmdLink,
	})
	root.AddCommand(cmd.Command{
		Name:  "write",
		Brief: "Write the linked image (or a single segment) to disk",
		Description: "Write the last 'link' result to the named file. If -s" +
			" was given on the command line, write only that segment's raw" +
			" assembled bytes instead of the linked container.",
		Usage: "write <filename>",
		Data:  (*App).cmdWrite,
	})
	root.AddCommand(cmd.Command{
		Name:  "symbols",
		Brief: "List or look up exported symbols",
		Description: "With no argument, list every exported symbol and its" +
			" resolved value. With an argument, look up a symbol by exact" +
			" name or unambiguous prefix; if no match is found, suggest" +
			" exported names sharing that prefix.",
		Usage: "symbols [<name-or-prefix>]",
		Data:  (*App).cmdSymbols,
	})
	root.AddCommand(cmd.Command{
		Name:  "segments",
		Brief: "List assembled segments",
		Description: "List every segment produced by the last 'assemble':" +
			" its name, virtual address, virtual size, and assembled length.",
		Usage: "segments",
		Data:  (*App).cmdSegments,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*App).cmdQuit,
	})

	root.AddShortcut("l", "load")
	root.AddShortcut("a", "assemble")
	root.AddShortcut("w", "write")
	root.AddShortcut("sym", "symbols")
	root.AddShortcut("seg", "segments")
	root.AddShortcut("?", "help")

	cmds = root
}
