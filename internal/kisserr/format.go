package kisserr

import (
	"fmt"
	"strings"
)

// Format renders a Condition with source context: a header line, the
// offending source line, and a caret under the column. Conditions
// without a position (anything the evaluator, rather than the reader,
// raised) fall back to the plain Error() string.
func Format(c *Condition, source string, color bool) string {
	if c.Pos.Zero() {
		return c.Error()
	}

	var sb strings.Builder
	if c.Pos.File != "" {
		fmt.Fprintf(&sb, "Error in %s:%d:%d\n", c.Pos.File, c.Pos.Line, c.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "Error at line %d:%d\n", c.Pos.Line, c.Pos.Column)
	}

	if line := sourceLine(source, c.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", c.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+c.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(string(c.Class) + ": " + c.renderMessage())
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
