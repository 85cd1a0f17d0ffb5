// Command morph-oov inspects and serves the OOV provider chain of an analyzer
// configuration.
//
//	morph-oov -c morph.yaml plugins
//	morph-oov -c morph.yaml candidates --text 東京スカイツリー
//	morph-oov -c morph.yaml serve --watch
//	morph-oov vet ./examples/plugins/fixedoov
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/platinummonkey/morph/pkg/analyzer"
	"github.com/platinummonkey/morph/pkg/config"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/sirupsen/logrus"
)

var version = "dev"

type CLI struct {
	Config   string `short:"c" type:"path" env:"MORPH_CONFIG" help:"Configuration file (YAML or JSON)."`
	LogLevel string `env:"MORPH_LOG_LEVEL" help:"Log level, overrides the configuration."`

	Candidates CandidatesCmd `cmd:"" help:"Print OOV candidates for input text."`
	Plugins    PluginsCmd    `cmd:"" help:"List the resolved OOV providers."`
	Serve      ServeCmd      `cmd:"" help:"Serve the HTTP API."`
	Vet        VetCmd        `cmd:"" help:"Check plugin source directories before building them."`

	Version kong.VersionFlag `help:"Print version and exit."`
}

// Globals is shared by every command
type Globals struct {
	Config *config.Config
	Log    *logrus.Logger
	Out    io.Writer
}

func (g *Globals) newAnalyzer(ctx context.Context, opts ...analyzer.Option) (*analyzer.Analyzer, error) {
	opts = append([]analyzer.Option{analyzer.WithLogger(g.Log)}, opts...)
	return analyzer.New(ctx, g.Config, opts...)
}

func loadGlobals(cli *CLI, out io.Writer) (*Globals, error) {
	cfg, err := config.LoadConfig(cli.Config)
	if err != nil {
		return nil, err
	}

	level := cfg.Observability.LogLevel
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}

	return &Globals{
		Config: cfg,
		Log:    observability.NewLogger(level, os.Stderr),
		Out:    out,
	}, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("morph-oov"),
		kong.Description("Inspect and serve unknown-word (OOV) candidate generation."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	globals, err := loadGlobals(&cli, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	ctx.FatalIfErrorf(ctx.Run(globals))
}
