package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRenderer runs an external converter process per render, writing the
// input to stdin and reading the artifact from stdout. The default command,
// "weasyprint - -", converts HTML on stdin to PDF on stdout.
type CommandRenderer struct {
	name string
	args []string
}

// NewCommand parses a shell-free command line (fields split on whitespace).
func NewCommand(command string) (*CommandRenderer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("render command is empty")
	}
	return &CommandRenderer{name: fields[0], args: fields[1:]}, nil
}

// Render spawns the converter. Context cancellation kills the process, so
// this adapter does honor the deadline, unlike the interface's minimum
// guarantee.
func (c *CommandRenderer) Render(ctx context.Context, input string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render command failed: %w: %s", err, stderrTail(&stderr))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("render command produced no output: %s", stderrTail(&stderr))
	}
	return stdout.Bytes(), nil
}

// stderrTail keeps error summaries short enough for records and logs.
func stderrTail(buf *bytes.Buffer) string {
	const max = 512
	s := strings.TrimSpace(buf.String())
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
