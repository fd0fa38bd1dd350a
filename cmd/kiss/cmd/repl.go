package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start a line-oriented read-eval-print loop",
	Long: `A line-oriented read-eval-print loop over stdin/stdout sharing one
global environment. A signalled condition prints a diagnostic and
returns control to the prompt rather than aborting the loop.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	in, err := newInterpreter()
	if err != nil {
		return err
	}
	return in.REPL(os.Stdin, os.Stdout)
}
