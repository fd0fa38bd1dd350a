package cmd

import (
	"fmt"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/dump"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/spf13/cobra"
)

var dumpEvalExpr string

var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Evaluate a file or expression and print the result as JSON",
	Long: `Like run, but serializes the final object graph to JSON instead of
using the printer, for scripting integration with external tooling.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpEvalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
}

func runDump(_ *cobra.Command, args []string) error {
	src, name, err := sourceFor(dumpEvalExpr, args)
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

	var last object.Object = object.Nil
	for _, form := range forms {
		v, evalErr := in.Eval.Eval(form, in.Env)
		if evalErr != nil {
			if cond, ok := evalErr.(*kisserr.Condition); ok {
				return fmt.Errorf("%s", cond.Error())
			}
			return evalErr
		}
		last = v
	}
	fmt.Println(dump.ToJSON(last))
	return nil
}
