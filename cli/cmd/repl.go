package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/bindc/cli/cmd/repl"
	"github.com/ardnew/bindc/log"
)

// Repl evaluates bindings interactively. When standard input is not a
// terminal, each line read from it is evaluated instead.
type Repl struct {
	History bool `default:"true" help:"Persist input history in the cache directory" negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	if !interactive(os.Stdin) {
		return repl.Batch(ctx, s, os.Stdin, outputFrom(ctx))
	}

	var cacheDir string

	if ktx := kongContextFrom(ctx); ktx != nil && r.History {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, s, cacheDir, s.logger.Wrap(log.WithLevel(log.LevelWarn)))
}

// interactive reports whether f is a terminal.
func interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
