// Package kiss is the public embedding facade: construct an
// Interpreter, read forms from text, evaluate them, and print results.
// A constructor taking functional options returns a long-lived engine
// value that owns every collaborator the language needs.
package kiss

import (
	"fmt"
	"io"
	"strings"

	"github.com/awesome-interesting-projects/kiss/internal/config"
	"github.com/awesome-interesting-projects/kiss/internal/environment"
	"github.com/awesome-interesting-projects/kiss/internal/evaluator"
	"github.com/awesome-interesting-projects/kiss/internal/heap"
	"github.com/awesome-interesting-projects/kiss/internal/kisserr"
	"github.com/awesome-interesting-projects/kiss/internal/object"
	"github.com/awesome-interesting-projects/kiss/internal/printer"
	"github.com/awesome-interesting-projects/kiss/internal/reader"
	"github.com/awesome-interesting-projects/kiss/internal/symtab"
)

// Interpreter bundles a symbol table, heap, global environment and
// evaluator into one long-lived value.
type Interpreter struct {
	Syms *symtab.Table
	Heap *heap.Heap
	Eval *evaluator.Evaluator
	Env  *environment.Env

	cfg *config.Config
}

// Option configures an Interpreter at construction time.
type Option func(*options)

type options struct {
	cfg *config.Config
}

// WithConfig overrides the built-in tunables with cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// New creates an Interpreter with its global namespace pre-populated
// with the built-in special operators and C-functions.
func New(opts ...Option) *Interpreter {
	o := &options{cfg: config.Default()}
	for _, opt := range opts {
		opt(o)
	}

	syms := symtab.New(
		symtab.WithRehashSize(o.cfg.SymbolTable.RehashSize),
		symtab.WithRehashThreshold(o.cfg.SymbolTable.RehashThreshold),
	)
	h := heap.New(o.cfg.Heap.InitialCapacity, heap.WithSoftLimit(o.cfg.Heap.SoftLimit))
	ev := evaluator.New(syms, h).WithMaxCallDepth(o.cfg.Evaluator.MaxCallDepth)
	evaluator.InstallBuiltins(syms, h, ev)
	env := environment.New()

	return &Interpreter{Syms: syms, Heap: h, Eval: ev, Env: env, cfg: o.cfg}
}

// NewReader wraps src in a Reader sharing this Interpreter's symbol
// table and heap, with the configured array-rank bound applied.
func (in *Interpreter) NewReader(src io.Reader, sourceName string) *reader.Reader {
	return reader.New(src, in.Syms, in.Heap,
		reader.WithMaxArrayRank(in.cfg.Reader.MaxArrayRank),
		reader.WithSourceName(sourceName),
	)
}

// ReadAll reads every top-level form from src.
func (in *Interpreter) ReadAll(src io.Reader, sourceName string) ([]object.Object, error) {
	r := in.NewReader(src, sourceName)
	var forms []object.Object
	for {
		form, err := r.Read()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return forms, err
		}
		forms = append(forms, form)
	}
}

// EvalString reads and evaluates every top-level form in src in order,
// returning the last form's value (nil's Object form if src is empty).
func (in *Interpreter) EvalString(src string) (object.Object, error) {
	forms, err := in.ReadAll(strings.NewReader(src), "<eval>")
	if err != nil {
		return nil, err
	}
	var result object.Object = object.Nil
	for _, form := range forms {
		result, err = in.Eval.Eval(form, in.Env)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Print renders o the way `print` would.
func (in *Interpreter) Print(o object.Object) string { return printer.Print(o) }

// REPL runs a line-oriented read-eval-print loop over in/out: forms
// are read incrementally, evaluated in the interpreter's single global
// environment, and their printed value written to out. A signalled
// condition is reported to out as "*** class: message" without
// aborting the loop: a diagnostic is printed and control returns to
// the prompt rather than exiting the process.
func (in *Interpreter) REPL(stdin io.Reader, out io.Writer) error {
	r := in.NewReader(stdin, "<repl>")
	for {
		fmt.Fprint(out, "> ")
		form, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if cond, ok := err.(*kisserr.Condition); ok {
				fmt.Fprintf(out, "*** %s\n", cond.Error())
				continue
			}
			return err
		}
		result, err := in.Eval.Eval(form, in.Env)
		if err != nil {
			if cond, ok := err.(*kisserr.Condition); ok {
				fmt.Fprintf(out, "*** %s\n", cond.Error())
				continue
			}
			fmt.Fprintf(out, "*** %s\n", err)
			continue
		}
		fmt.Fprintln(out, printer.Print(result))
	}
}
