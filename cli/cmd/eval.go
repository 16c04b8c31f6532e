package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindc/binding/builtin"
)

// Eval compiles a binding and evaluates it against the model's sample
// data.
type Eval struct {
	Type   string `help:"Convert the result to this type (e.g. string)" short:"t"`
	Output string `default:"text" enum:"text,json,yaml" help:"Result format (${enum})" short:"o"`

	Binding string `arg:"" help:"Binding expression to evaluate" name:"binding"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	expected, err := s.Type(ctx, e.Type)
	if err != nil {
		return err
	}

	b := Binding{Origin: "binding", Text: e.Binding}

	x, err := s.Compile(ctx, b.Text, expected)
	if err != nil {
		newReporter(outputFrom(ctx)).failed(b, err)

		return ErrCheck.Wrap(err)
	}

	v, err := s.Evaluate(ctx, x)
	if err != nil {
		return err
	}

	return writeResult(outputFrom(ctx), e.Output, v)
}

// writeResult writes v to w in the named format.
func writeResult(w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "json":
		data, err = yaml.MarshalWithOptions(v, yaml.JSON())
	case "yaml":
		data, err = yaml.Marshal(v)
	default:
		_, err = fmt.Fprintln(w, builtin.Text(v))

		return err
	}

	if err != nil {
		return ErrEncode.Wrap(err).With(slog.String("format", format))
	}

	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}

	_, err = w.Write(data)

	return err
}
