package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/bindc/log"
	"github.com/ardnew/bindc/pkg"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-compile-retry loop.
// It writes a binding to a temp file, opens the user's editor, and compiles
// the result. On a compile error the user is prompted to re-edit.
type editCommand struct {
	text    string
	session Session
	ctxFunc func() context.Context
	logger  log.Logger
	edited  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit, leaving
// edited empty; declining to re-edit returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), pkg.Name+"-repl-*.txt")
	if err != nil {
		return err
	}

	path := f.Name()
	f.Close()

	defer os.Remove(path)

	content := c.text

	for {
		if err := os.WriteFile(path, []byte(content), pkg.FileMode); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)

		text := joinLines(content)
		if text == "" {
			return nil
		}

		_, compileErr := c.session.Compile(ctx, text, nil)
		c.logger.TraceContext(ctx, "editor compile attempt",
			slog.Int("length", len(text)),
			slog.Bool("success", compileErr == nil),
		)

		if compileErr == nil {
			c.edited = text

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", compileErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// joinLines folds a multi-line binding into one line, dropping blank and
// comment lines.
func joinLines(s string) string {
	var parts []string

	for line := range strings.Lines(s) {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			parts = append(parts, line)
		}
	}

	return strings.Join(parts, " ")
}

// runEditor runs the user's editor on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
