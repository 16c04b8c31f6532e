// Package cmd implements the bindc subcommands.
//
// Every command compiling bindings works through a [Session], which layers
// the builtin symbols, the imported namespace prefixes and the symbols of an
// optional data model into one registry. Bindings come from command
// arguments and from the source files given with --source, one binding per
// line.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
