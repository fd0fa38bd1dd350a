package kiss

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awesome-interesting-projects/kiss/internal/config"
)

func TestNewInstallsBuiltinArithmetic(t *testing.T) {
	in := New()
	v, err := in.EvalString("(+ 1 2 3)")
	assert.NoError(t, err)
	assert.Equal(t, "6", in.Print(v))
}

func TestEvalStringReturnsLastFormsValue(t *testing.T) {
	in := New()
	v, err := in.EvalString("1 2 (+ 1 1)")
	assert.NoError(t, err)
	assert.Equal(t, "2", in.Print(v))
}

func TestEvalStringOfEmptySourceReturnsNil(t *testing.T) {
	in := New()
	v, err := in.EvalString("")
	assert.NoError(t, err)
	assert.Equal(t, "nil", in.Print(v))
}

func TestEvalStringPropagatesConditionAsError(t *testing.T) {
	in := New()
	_, err := in.EvalString("(car 1)")
	assert.Error(t, err)
}

func TestEvalStringSharesGlobalEnvironmentAcrossCalls(t *testing.T) {
	in := New()
	_, err := in.EvalString("(defglobal x 10)")
	assert.NoError(t, err)
	v, err := in.EvalString("(+ x 1)")
	assert.NoError(t, err)
	assert.Equal(t, "11", in.Print(v))
}

func TestReadAllReadsEveryTopLevelForm(t *testing.T) {
	in := New()
	forms, err := in.ReadAll(strings.NewReader("1 2 3"), "<test>")
	assert.NoError(t, err)
	assert.Len(t, forms, 3)
}

func TestWithConfigOverridesMaxCallDepth(t *testing.T) {
	cfg := config.Default()
	cfg.Evaluator.MaxCallDepth = 8

	in := New(WithConfig(cfg))
	_, err := in.EvalString("(defun recur (n) (recur (+ n 1)))")
	assert.NoError(t, err)

	_, err = in.EvalString("(recur 0)")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "storage-exhausted")
}

func TestREPLPrintsResultsAndPrompts(t *testing.T) {
	in := New()
	var out strings.Builder
	err := in.REPL(strings.NewReader("(+ 1 2)\n"), &out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "> ")
	assert.Contains(t, out.String(), "3")
}

func TestREPLReportsConditionAndContinues(t *testing.T) {
	in := New()
	var out strings.Builder
	err := in.REPL(strings.NewReader("(car 1)\n(+ 1 1)\n"), &out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "***")
	assert.Contains(t, out.String(), "2")
}

func TestREPLReportsParseErrorAndContinues(t *testing.T) {
	in := New()
	var out strings.Builder
	err := in.REPL(strings.NewReader("(1 2\n(+ 1 1)\n"), &out)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "***")
}
