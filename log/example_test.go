package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/bindc/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Info("binding compiled", slog.String("type", "string"))
	logger.Debug("not shown at the default level")
	// Output:
	// level=INFO msg="binding compiled" type=string
}

func Example_with() {
	logger := log.Make(os.Stdout, log.WithPretty(false), log.WithTimeLayout("none"))

	unit := logger.With(slog.String("unit", "7f3c"))
	unit.Warn("parameter unused", slog.String("name", "x"))
	// Output:
	// {"level":"WARN","msg":"parameter unused","unit":"7f3c","name":"x"}
}

func Example_context() {
	type requestKey struct{}

	ctx := context.WithValue(context.Background(), requestKey{}, "req-789")

	logger := log.Make(os.Stderr, log.WithLevel(log.LevelTrace))
	logger.TraceContext(ctx, "visit", slog.Int("depth", 3))
}
