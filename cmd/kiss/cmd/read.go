package cmd

import (
	"fmt"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/dump"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/spf13/cobra"
)

var (
	readEvalExpr string
	readDump     bool
)

var readCmd = &cobra.Command{
	Use:   "read [file]",
	Short: "Read every top-level form from a file or expression and print it back",
	Long: `Read every top-level form from a file or inline expression, printing
each form back using the printer without evaluating it.

Examples:
  kiss read script.lisp
  kiss read -e "(+ 1 2)"
  kiss read --dump script.lisp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().StringVarP(&readEvalExpr, "eval", "e", "", "read inline code instead of a file")
	readCmd.Flags().BoolVar(&readDump, "dump", false, "print each form as JSON instead of using the printer")
}

func runRead(_ *cobra.Command, args []string) error {
	src, name, err := sourceFor(readEvalExpr, args)
	if err != nil {
		return err
	}
	in, err := newInterpreter()
	if err != nil {
		return err
	}
	forms, err := in.ReadAll(strings.NewReader(src), name)
	if err != nil {
		if cond, ok := err.(*kisserr.Condition); ok {
			return fmt.Errorf("%s", kisserr.Format(cond, src, false))
		}
		return err
	}
	for _, form := range forms {
		if readDump {
			fmt.Println(dump.ToJSON(form))
		} else {
			fmt.Println(in.Print(form))
		}
	}
	return nil
}
