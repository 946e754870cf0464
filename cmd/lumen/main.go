// Command lumen is the host CLI: `lumen` starts a REPL, `lumen file.msc`
// runs a source file.
package main

import (
	"os"

	"github.com/lumenlang/lumen/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args))
}
