// Package cli is the host driver: argv parsing, load-path bootstrap, a file
// runner, and an isatty-gated REPL. None of this is part of the language
// core -- section 1 of the design explicitly hands the host CLI off as an
// external collaborator that talks to the core only through the embedding
// API in pkg/embed.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/lumenlang/lumen/pkg/embed"
)

// Run is the CLI's entire behavior: cmd/lumen/main.go just calls this and
// exits with the returned code, so the decision of what counts as a
// runtime failure (and therefore a non-zero exit) lives in exactly one
// place.
func Run(argv []string) int {
	cfg, err := loadConfig("lumen.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumen: reading lumen.yaml: %s\n", err)
		return 1
	}

	v := embed.New(argv)
	for _, p := range cfg.LoadPaths {
		v.AddLoadPath(p)
	}
	v.AddLoadPath(".")

	if len(argv) > 1 {
		return runFile(v, argv[1])
	}
	return runREPL(v, os.Stdin, os.Stdout)
}

func runFile(v *embed.VM, path string) int {
	if _, err := v.LoadFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %s\n", err)
		return 1
	}
	return 0
}

// runREPL drives an interactive loop when stdin is a real terminal, and a
// plain non-interactive batch read (no prompt, no history) when it's a
// pipe or redirected file -- the isatty check the reference CLI uses to
// decide whether printing a prompt even makes sense.
func runREPL(v *embed.VM, in io.Reader, out io.Writer) int {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	var hist *history
	if interactive {
		h, err := openHistory()
		if err != nil {
			fmt.Fprintf(out, "lumen: history unavailable: %s\n", err)
		} else {
			hist = h
			defer hist.close()
		}
	}

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for {
		if interactive {
			fmt.Fprint(out, "lumen> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo++
		hist.record(line)

		sourceName := fmt.Sprintf("<repl:%d>", lineNo)
		result, err := v.EvalString(line, sourceName)
		if err != nil {
			fmt.Fprintf(out, "error: %s\n", err)
			continue
		}
		if interactive {
			fmt.Fprintln(out, result.Inspect())
		}
	}
	return 0
}
