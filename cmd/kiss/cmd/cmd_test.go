package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceForPrefersInlineExpression(t *testing.T) {
	src, name, err := sourceFor("(+ 1 2)", nil)
	assert.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", src)
	assert.Equal(t, "<eval>", name)
}

func TestSourceForReadsFileWhenNoInlineExpression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.lisp")
	assert.NoError(t, os.WriteFile(path, []byte("(+ 1 2)"), 0o644))

	src, name, err := sourceFor("", []string{path})
	assert.NoError(t, err)
	assert.Equal(t, "(+ 1 2)", src)
	assert.Equal(t, path, name)
}

func TestSourceForMissingFileIsError(t *testing.T) {
	_, _, err := sourceFor("", []string{filepath.Join(t.TempDir(), "missing.lisp")})
	assert.Error(t, err)
}

func TestSourceForNeitherFileNorExpressionIsError(t *testing.T) {
	_, _, err := sourceFor("", nil)
	assert.ErrorIs(t, err, errNoInput)
}

func TestNewInterpreterUsesDefaultConfigWithoutConfigPath(t *testing.T) {
	configPath = ""
	in, err := newInterpreter()
	assert.NoError(t, err)
	v, err := in.EvalString("(+ 1 2)")
	assert.NoError(t, err)
	assert.Equal(t, "3", in.Print(v))
}

func TestNewInterpreterLoadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiss.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("evaluator:\n  maxCallDepth: 5\n"), 0o644))

	configPath = path
	defer func() { configPath = "" }()

	in, err := newInterpreter()
	assert.NoError(t, err)
	_, err = in.EvalString("(defun recur (n) (recur (+ n 1)))")
	assert.NoError(t, err)
	_, err = in.EvalString("(recur 0)")
	assert.Error(t, err)
}

func TestNewInterpreterInvalidConfigPathIsError(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "does-not-exist.yaml")
	defer func() { configPath = "" }()

	_, err := newInterpreter()
	assert.Error(t, err)
}

func TestRootCommandRegistersEveryLeafCommand(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"read", "run", "repl", "dump", "version"} {
		assert.True(t, names[want], "expected %q to be registered", want)
	}
}

func TestRunRunReturnsErrorOnParseFailure(t *testing.T) {
	configPath = ""
	runEvalExpr = "(1 2"
	defer func() { runEvalExpr = "" }()

	assert.Error(t, runRun(runCmd, nil))
}

func TestRunReadReturnsErrorOnParseFailure(t *testing.T) {
	configPath = ""
	readEvalExpr = "(1 2"
	defer func() { readEvalExpr = "" }()

	assert.Error(t, runRead(readCmd, nil))
}

func TestRunDumpReturnsErrorOnEvalFailure(t *testing.T) {
	configPath = ""
	dumpEvalExpr = "(car 1)"
	defer func() { dumpEvalExpr = "" }()

	assert.Error(t, runDump(dumpCmd, nil))
}

func TestRunRunReturnsErrorWithNeitherFileNorExpression(t *testing.T) {
	configPath = ""
	runEvalExpr = ""

	assert.ErrorIs(t, runRun(runCmd, nil), errNoInput)
}
