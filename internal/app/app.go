// Package app wires the engine together for the command-line surface:
// logger construction, catalogue registration, manifest loading, and the
// load/generate/resave run loop.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	gojson "github.com/goccy/go-json"

	"github.com/vk/hwtree/components/channels"
	"github.com/vk/hwtree/internal/ctxlog"
	"github.com/vk/hwtree/internal/engine"
	"github.com/vk/hwtree/internal/manifest"
	"github.com/vk/hwtree/internal/registry"
	"github.com/vk/hwtree/internal/serialize"
)

// Config holds everything an App instance needs to run.
type Config struct {
	StatePath     string
	Mode          string
	ManifestsPath string
	LogFormat     string
	LogLevel      string
}

// coreModules are the component catalogues compiled into the binary.
var coreModules = []registry.Module{channels.Module{}}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	reg    *registry.Registry
	eng    *engine.Engine
	config *Config
}

// NewApp constructs a fully initialized App with its own isolated logger
// and registry.
func NewApp(outW io.Writer, errW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Component catalogues registered.", "count", len(modules))

	if cfg.ManifestsPath != "" {
		if err := manifest.LoadDir(ctx, cfg.ManifestsPath, reg); err != nil {
			return nil, fmt.Errorf("loading manifests: %w", err)
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:   outW,
		logger: logger,
		reg:    reg,
		eng:    engine.New(reg, channels.Template()),
		config: cfg,
	}, nil
}

// Registry returns the application's registry. Primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.reg
}

// Run loads the state document and performs the configured operation,
// writing the result to the output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	root, err := a.eng.LoadFile(ctx, a.config.StatePath)
	if err != nil {
		return err
	}

	switch a.config.Mode {
	case "resave":
		out, err := a.eng.SaveJSON(ctx, root, serialize.Options{})
		if err != nil {
			return err
		}
		_, err = a.outW.Write(out)
		return err
	default:
		cfg, diags, err := a.eng.Generate(ctx, root)
		if err != nil {
			return err
		}
		for _, d := range diags {
			fmt.Fprintf(a.outW, "warning: %s: %s\n", d.Summary, d.Detail)
		}
		out, err := gojson.MarshalIndent(cfg, "", "    ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.outW, "%s\n", out)
		return err
	}
}
