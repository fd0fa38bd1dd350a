package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/awesome-interesting-projects/kiss/internal/config"
	"github.com/awesome-interesting-projects/kiss/pkg/kiss"
)

var errNoInput = errors.New("either provide a file path or use -e flag for inline code")

// newInterpreter builds an Interpreter using the --config file when
// given, falling back to config.Default() otherwise.
func newInterpreter() (*kiss.Interpreter, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return kiss.New(kiss.WithConfig(cfg)), nil
}

// sourceFor resolves the CLI's "file or -e expression" input pattern.
func sourceFor(evalExpr string, args []string) (src, name string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		data, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], readErr)
		}
		return string(data), args[0], nil
	}
	return "", "", errNoInput
}
