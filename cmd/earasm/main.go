// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/earasm/earasm/internal/pegasus"
)

func main() {
	layout := pegasus.DefaultLayout()

	var dumpSymbolsPath, onlySegment string
	var files []string
	var verbose bool
	searchPaths := []string{"."}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--dump-symbols":
			i++
			if i >= len(args) {
				exitOnError(fmt.Errorf("--dump-symbols requires a filename"))
			}
			dumpSymbolsPath = args[i]
		case "-s":
			i++
			if i >= len(args) {
				exitOnError(fmt.Errorf("-s requires a segment name"))
			}
			onlySegment = args[i]
		case "-v":
			verbose = true
		case "-I":
			i++
			if i >= len(args) {
				exitOnError(fmt.Errorf("-I requires a directory"))
			}
			searchPaths = append(searchPaths, args[i])
		case "--layout":
			i++
			if i >= len(args) {
				exitOnError(fmt.Errorf("--layout requires a filename"))
			}
			data, err := os.ReadFile(args[i])
			if err != nil {
				exitOnError(err)
			}
			layout, err = pegasus.ParseLayout(data)
			if err != nil {
				exitOnError(err)
			}
		default:
			files = append(files, args[i])
		}
	}

	var dumpSymbols io.Writer
	if dumpSymbolsPath != "" {
		f, err := os.OpenFile(dumpSymbolsPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			exitOnError(err)
		}
		defer f.Close()
		dumpSymbols = f
	}

	app, err := NewApp(layout, searchPaths, dumpSymbols)
	if err != nil {
		exitOnError(err)
	}
	app.onlySegment = onlySegment
	app.verbose = verbose
	if verbose {
		app.asm.SetTrace(os.Stderr)
	}

	// Run commands contained in command-line files.
	for _, filename := range files {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		app.RunCommands(file, os.Stdout, false)
		file.Close()
	}
	if len(files) > 0 {
		return
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(app, c)

	// Run commands interactively.
	app.RunCommands(os.Stdin, os.Stdout, true)
}

func handleInterrupt(a *App, c chan os.Signal) {
	for {
		<-c
		a.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
