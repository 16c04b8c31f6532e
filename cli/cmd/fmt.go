package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindc/binding/ast"
	"github.com/ardnew/bindc/binding/syntax"
)

// Fmt parses bindings and prints them in canonical, fully parenthesized form.
type Fmt struct {
	Text Text `cmd:"" default:"withargs" help:"Print one canonical binding per line (default)."`
	JSON JSON `cmd:""                    help:"Print bindings as JSON."`
	YAML YAML `cmd:""                    help:"Print bindings as YAML."`
}

// formatted is the structured form of one formatted binding.
type formatted struct {
	Origin    string `json:"origin"    yaml:"origin"`
	Source    string `json:"source"    yaml:"source"`
	Canonical string `json:"canonical" yaml:"canonical"`
}

// canonical parses each binding in args and the source files of ctx.
func canonical(ctx context.Context, args []string) ([]formatted, error) {
	list, err := bindings(ctx, args)
	if err != nil {
		return nil, err
	}

	out := make([]formatted, 0, len(list))

	for _, b := range list {
		node, err := syntax.Parse(b.Text)
		if err != nil {
			return nil, ErrCheck.Wrap(err).With(slog.String("origin", b.Origin))
		}

		out = append(out, formatted{
			Origin:    b.Origin,
			Source:    b.Text,
			Canonical: ast.String(node),
		})
	}

	return out, nil
}

// Text prints the canonical text of each binding.
type Text struct {
	Bindings []string `arg:"" help:"Binding expressions; more are read from --source files" name:"binding" optional:""`
}

// Run executes the text command.
func (t *Text) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	list, err := canonical(ctx, t.Bindings)
	if err != nil {
		return err
	}

	w := outputFrom(ctx)

	for _, f := range list {
		if _, err := fmt.Fprintln(w, f.Canonical); err != nil {
			return err
		}
	}

	return nil
}

// JSON prints formatted bindings as a JSON array.
type JSON struct {
	Bindings []string `arg:"" help:"Binding expressions; more are read from --source files" name:"binding" optional:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	list, err := canonical(ctx, j.Bindings)
	if err != nil {
		return err
	}

	return writeResult(outputFrom(ctx), "json", list)
}

// YAML prints formatted bindings as a YAML sequence.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Bindings []string `arg:"" help:"Binding expressions; more are read from --source files" name:"binding" optional:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	list, err := canonical(ctx, y.Bindings)
	if err != nil {
		return err
	}

	data, err := yaml.MarshalWithOptions(list, yaml.Indent(y.Indent))
	if err != nil {
		return ErrEncode.Wrap(err).With(slog.String("format", "yaml"))
	}

	_, err = outputFrom(ctx).Write(data)

	return err
}
