// Package cli contains the command line interface for bindc.
//
// # Usage
//
// Bindings are compiled against the builtin symbols and, optionally, a YAML
// data model whose root fields resolve as bare names:
//
//	bindc --model invoice.yaml check 'len(Lines)' 'String.ToUpper(Customer)'
//	bindc --model invoice.yaml eval -o json 'map(Lines, .Qty)'
//	bindc --source bindings.txt fmt yaml
//	bindc --model invoice.yaml repl
//
// The default command is check. Bindings may be given as arguments or read
// from --source files, one per line; '-' reads stdin.
//
// # Configuration
//
// Flags may be set in a YAML file under the user config directory, written
// from the current flags by the init command. Keys are flag names; nested
// mappings join their keys with hyphens:
//
//	log:
//	  level: debug
//	import:
//	  - time
//
// Command-line flags override the file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, or none)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o bindc .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/bindc/pprof)
package cli
