// Package profile starts optional runtime profiling of the bindc command.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	bindc --pprof-mode=cpu check 'Lines.Count(l => l.Qty > 1)'
//
// Without the tag [Profiler.Start] is a no-op and [Modes] is empty. With it,
// profiles are written by [github.com/pkg/profile] into the configured
// directory, one file per mode (cpu.pprof, mem.pprof, ...), and the
// net/http/pprof handlers are registered on the default mux.
//
// Analyze a profile with the pprof tool:
//
//	go tool pprof -http=: ~/.cache/bindc/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
