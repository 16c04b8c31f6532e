package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/bindc/cli/cmd"
	"github.com/ardnew/bindc/pkg"
)

// baseConfig is the name of the YAML configuration file.
const baseConfig = "config.yaml"

// CLI is the top-level command-line interface for bindc.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Model  string   `help:"YAML data model the bindings are compiled against"           short:"m" type:"existingfile"`
	Import []string `help:"Namespace prefixes whose members resolve unqualified"        short:"I"`
	Source []string `help:"Binding source file(s), one per line, or '-' for stdin" name:"source" short:"s" type:"existingfile"`

	Check cmd.Check `cmd:"" default:"withargs" help:"Compile bindings and report their types"`
	Eval  cmd.Eval  `cmd:""                    help:"Evaluate a binding against the model data"`
	Fmt   cmd.Fmt   `cmd:""                    help:"Print bindings in canonical form"`
	Repl  cmd.Repl  `cmd:""                    help:"Evaluate bindings interactively"`
	Init  cmd.Init  `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the bindc CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithOptions(ctx, cmd.Options{
		Model:   cli.Model,
		Imports: cli.Import,
	})

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
