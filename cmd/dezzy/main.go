// Command dezzy compiles a binary-format description document into
// generated source code.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anthropics/dezzy/backend"
	"github.com/anthropics/dezzy/codegen"
	"github.com/anthropics/dezzy/pipeline"
	"github.com/anthropics/dezzy/surface"
	"github.com/anthropics/dezzy/wasmhost"
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("dezzy"),
		kong.Description("Compiler for declarative binary-format descriptions."),
		kong.UsageOnError(),
	)

	cli.prologue()
	err := ctx.Run(&cli)
	cli.epilogue()
	ctx.FatalIfErrorf(err)
}

// CLI is the top-level argument structure. Verbose stacks like -vvv to
// raise the global log level; each subcommand is a sibling struct kong
// dispatches into based on the invoked name.
type CLI struct {
	Verbose int `help:"Increase verbosity level." short:"v" type:"counter"`

	Generate GenerateCmd `cmd:"" help:"Lower a schema and run a code-generation backend."`
	Backends BackendsCmd `cmd:"" help:"List registered backend names."`
}

func (c *CLI) prologue() {
	switch c.Verbose {
	case 0:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case 1:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case 2:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	log.Debug().Int("verbosity", c.Verbose).Msg("completed prologue")
}

func (c *CLI) epilogue() {
	log.Debug().Msg("completed epilogue")
}

// registry returns every backend known at startup: the built-in Go
// emitter, plus a WASM plugin if the caller supplied one.
func registry(ctx context.Context, wasmPluginPath string) (*backend.Registry, func(), error) {
	r := backend.NewRegistry()
	r.Register(codegen.GoBackend{})

	cleanup := func() {}
	if wasmPluginPath == "" {
		return r, cleanup, nil
	}

	wasmBytes, err := os.ReadFile(wasmPluginPath)
	if err != nil {
		return nil, cleanup, fmt.Errorf("dezzy: reading wasm plugin %s: %w", wasmPluginPath, err)
	}
	plugin, err := wasmhost.Load(ctx, wasmPluginPath, wasmBytes)
	if err != nil {
		return nil, cleanup, fmt.Errorf("dezzy: loading wasm plugin %s: %w", wasmPluginPath, err)
	}
	r.Register(plugin)
	cleanup = func() { plugin.Close(ctx) }
	return r, cleanup, nil
}

// GenerateCmd reads a schema document, lowers it, and writes whatever
// files the chosen backend produces into Out.
type GenerateCmd struct {
	Schema     string `help:"Path to the format description document." required:"" type:"existingfile"`
	Backend    string `help:"Registered backend name to invoke." default:"go"`
	WasmPlugin string `help:"Path to a compiled WASM plugin module, registered alongside the built-in backends." optional:""`
	Out        string `help:"Directory generated files are written to." required:""`
}

func (g *GenerateCmd) Run(cli *CLI) error {
	ctx := context.Background()

	doc, err := os.ReadFile(g.Schema)
	if err != nil {
		return fmt.Errorf("dezzy: reading %s: %w", g.Schema, err)
	}

	format, err := surface.Parse(doc)
	if err != nil {
		return fmt.Errorf("dezzy: parsing %s: %w", g.Schema, err)
	}
	log.Debug().Str("format", format.Name).Msg("parsed surface document")

	lirFormat, err := pipeline.Lower(format)
	if err != nil {
		return fmt.Errorf("dezzy: lowering %s: %w", format.Name, err)
	}
	log.Debug().Int("types", len(lirFormat.Types)).Msg("lowered to LIR")

	reg, cleanup, err := registry(ctx, g.WasmPlugin)
	if err != nil {
		return err
	}
	defer cleanup()

	generated, err := reg.Generate(g.Backend, lirFormat)
	if err != nil {
		return fmt.Errorf("dezzy: generating with backend %q: %w", g.Backend, err)
	}

	if err := os.MkdirAll(g.Out, 0o755); err != nil {
		return fmt.Errorf("dezzy: creating %s: %w", g.Out, err)
	}
	for _, f := range generated.Files {
		path := g.Out + "/" + f.Path
		if err := os.WriteFile(path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("dezzy: writing %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("wrote generated file")
	}
	return nil
}

// BackendsCmd lists every backend name the registry knows about, the
// built-ins plus an optional WASM plugin.
type BackendsCmd struct {
	WasmPlugin string `help:"Path to a compiled WASM plugin module to include in the listing." optional:""`
}

func (b *BackendsCmd) Run(cli *CLI) error {
	ctx := context.Background()
	reg, cleanup, err := registry(ctx, b.WasmPlugin)
	if err != nil {
		return err
	}
	defer cleanup()

	for _, name := range reg.Names() {
		fmt.Println(name)
	}
	return nil
}
