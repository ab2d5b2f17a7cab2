package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/appliance-converge/internal/adapters/appliance/memory"
	"github.com/olusolaa/appliance-converge/internal/adapters/appliance/rest"
	"github.com/olusolaa/appliance-converge/internal/adapters/source/hclfile"
	"github.com/olusolaa/appliance-converge/internal/adapters/source/inline"
	"github.com/olusolaa/appliance-converge/internal/adapters/source/manifest"
	"github.com/olusolaa/appliance-converge/internal/adapters/source/tfstate"
	"github.com/olusolaa/appliance-converge/internal/config"
	"github.com/olusolaa/appliance-converge/internal/core/ports"
	"github.com/olusolaa/appliance-converge/internal/core/service"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
	jsonreport "github.com/olusolaa/appliance-converge/internal/reporting/json"
	"github.com/olusolaa/appliance-converge/internal/reporting/text"
	"github.com/olusolaa/appliance-converge/internal/resources"
)

// Options carries command-line values that viper does not bind directly.
type Options struct {
	Vars []string
}

func LoadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildApplicationFromViper loads configuration and assembles every
// component of a run.
func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts Options) (*Application, error) {
	cfg, err := LoadConfig(v)
	if err != nil {
		return nil, err
	}

	logger, err := log.NewLogger(log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	}

	vars, err := parseVarOverrides(opts.Vars)
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg, vars, logger)
}

// Build assembles the application from an already validated config.
func Build(ctx context.Context, cfg *config.Config, vars map[string]any, logger ports.Logger) (*Application, error) {
	application := &Application{Logger: logger}

	client, err := newApplianceClient(cfg.Appliance, logger)
	if err != nil {
		return nil, err
	}
	if c, ok := client.(*rest.Client); ok {
		application.closers = append(application.closers, c.Close)
	}

	registry := service.NewComponentRegistry()
	for _, h := range resources.Handlers(client, logger) {
		if err := registry.RegisterHandler(h); err != nil {
			return nil, err
		}
	}
	logger.Debugf(ctx, "Registered %d resource kind(s)", len(registry.Kinds()))

	source, err := newSource(cfg, vars, logger)
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterSource(source); err != nil {
		return nil, err
	}

	reporter, err := newReporter(cfg.Reporter, logger)
	if err != nil {
		return nil, err
	}

	engine, err := service.NewConvergeEngine(registry, source, reporter,
		logger.WithFields(map[string]any{"component": "engine"}),
		service.EngineOptions{
			Concurrency:     cfg.Settings.Concurrency,
			CheckMode:       cfg.Settings.CheckMode,
			ContinueOnError: cfg.Settings.ContinueOnError,
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize converge engine")
	}

	application.Engine = engine
	application.Registry = registry
	logger.Debugf(ctx, "Application bootstrap complete")
	return application, nil
}

func newApplianceClient(cfg config.ApplianceConfig, logger ports.Logger) (ports.ApplianceClient, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.LoadSnapshot(cfg.Snapshot, logger)
	case config.DriverREST, "":
		return rest.NewClient(cfg.Config, nil, logger)
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported appliance driver: %s", cfg.Driver), "Supported: rest, memory")
	}
}

func newSource(cfg *config.Config, vars map[string]any, logger ports.Logger) (ports.DesiredStateSource, error) {
	srcLog := logger.WithFields(map[string]any{"source": cfg.Source.Type})
	switch cfg.Source.Type {
	case inline.SourceType:
		return inline.NewSource(cfg.Resources, srcLog), nil
	case manifest.SourceType:
		return manifest.NewSource(cfg.Source.Path, srcLog)
	case hclfile.SourceType:
		merged := make(map[string]any, len(cfg.Source.Vars)+len(vars))
		for k, v := range cfg.Source.Vars {
			merged[k] = v
		}
		for k, v := range vars {
			merged[k] = v
		}
		return hclfile.NewSource(hclfile.Options{
			Path:      cfg.Source.Path,
			VarFiles:  cfg.Source.VarFiles,
			Variables: merged,
		}, srcLog)
	case tfstate.SourceType:
		return tfstate.NewSource(cfg.Source.Path, srcLog)
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported source type: %s", cfg.Source.Type), "Supported: config, yaml, hcl, tfstate")
	}
}

func newReporter(cfg config.ReporterConfig, logger ports.Logger) (ports.Reporter, error) {
	reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": cfg.Type})
	switch cfg.Type {
	case jsonreport.ReporterTypeJSON:
		return jsonreport.NewReporter(cfg.JSON, reportLog)
	case text.ReporterTypeText, "":
		return text.NewReporter(cfg.Text, reportLog)
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported reporter type: %s", cfg.Type), "Supported: text, json")
	}
}
