// Command kiss is the CLI front-end for the interpreter core: a thin
// main.go delegating to a cmd package that owns the cobra command
// tree.
package main

import (
	"fmt"
	"os"

	"github.com/awesome-interesting-projects/kiss/cmd/kiss/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
