package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/bindc/log"
)

// Check compiles bindings and reports their static types, or every
// diagnostic of the bindings that fail.
type Check struct {
	Type string `help:"Convert each binding to this type (e.g. string)" short:"t"`
	Dump bool   `help:"Print the expression tree of each compiled binding" short:"d"`

	Bindings []string `arg:"" help:"Binding expressions; more are read from --source files" name:"binding" optional:""`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	list, err := bindings(ctx, c.Bindings)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	expected, err := s.Type(ctx, c.Type)
	if err != nil {
		return err
	}

	out := newReporter(outputFrom(ctx))
	failed, diagnostics := 0, 0

	for _, b := range list {
		e, err := s.Compile(ctx, b.Text, expected)
		if err != nil {
			failed++
			diagnostics += out.failed(b, err)

			continue
		}

		out.compiled(b, e)

		if c.Dump {
			out.dump(e)
		}
	}

	log.DebugContext(ctx, "checked bindings",
		slog.Int("total", len(list)),
		slog.Int("failed", failed),
	)

	if failed > 0 {
		return ErrCheck.With(
			slog.Int("failed", failed),
			slog.Int("diagnostics", diagnostics),
		)
	}

	return nil
}
