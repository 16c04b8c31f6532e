// Package log provides leveled structured logging on top of [log/slog].
//
// A [Logger] is made once with functional options and passed by value to
// the components that log:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("Kitchen"))
//
//	logger.Debug("binding compiled", slog.String("type", "string"))
//
// The zero Logger discards everything, so library types accept a Logger
// option and stay silent unless one is given.
//
// # Levels
//
// Besides the four levels of slog, [LevelTrace] sits below [LevelDebug] for
// per-node diagnostics of the binding compiler.
//
// # Output
//
// Records are written as JSON ([FormatJSON], the default) or key=value text
// ([FormatText]). With [WithPretty] both formats are styled with lipgloss;
// styling falls back to plain text when the output is not a terminal.
//
// # Package Logger
//
// The package-level functions ([Debug], [InfoContext], ...) log through a
// default Logger writing to standard error, reconfigured with [Config].
// Functions without a context argument use [DefaultContextProvider].
package log
