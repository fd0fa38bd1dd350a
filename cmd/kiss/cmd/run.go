package cmd

import (
	"fmt"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/spf13/cobra"
)

var (
	runEvalExpr string
	runTrace    bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Evaluate every top-level form in a file or expression",
	Long: `Read and evaluate every top-level form in sequence in one global
environment, printing the value of the last form (or every form's
value under --trace).

Examples:
  kiss run script.lisp
  kiss run -e "(print (+ 1 2))"
  kiss run --trace script.lisp`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runEvalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&runTrace, "trace", false, "print the value of every top-level form, not just the last")
}

func runRun(_ *cobra.Command, args []string) error {
	src, name, err := sourceFor(runEvalExpr, args)
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

	var last string
	for _, form := range forms {
		result, evalErr := in.Eval.Eval(form, in.Env)
		if evalErr != nil {
			if cond, ok := evalErr.(*kisserr.Condition); ok {
				return fmt.Errorf("%s", cond.Error())
			}
			return evalErr
		}
		last = in.Print(result)
		if runTrace {
			fmt.Println(last)
		}
	}
	if !runTrace && last != "" {
		fmt.Println(last)
	}
	return nil
}
