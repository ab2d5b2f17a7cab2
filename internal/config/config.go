package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/olusolaa/appliance-converge/internal/adapters/appliance/rest"
	"github.com/olusolaa/appliance-converge/internal/adapters/source/inline"
	"github.com/olusolaa/appliance-converge/internal/errors"
	"github.com/olusolaa/appliance-converge/internal/log"
	"github.com/olusolaa/appliance-converge/internal/reporting/json"
	"github.com/olusolaa/appliance-converge/internal/reporting/text"
)

const (
	DriverREST   = "rest"
	DriverMemory = "memory"
)

type Config struct {
	Settings  SettingsConfig  `mapstructure:"settings" yaml:"settings"`
	Appliance ApplianceConfig `mapstructure:"appliance" yaml:"appliance"`
	Source    SourceConfig    `mapstructure:"source" yaml:"source"`
	Reporter  ReporterConfig  `mapstructure:"reporter" yaml:"reporter"`
	// Resources are declarations embedded in the config file (source type "config").
	Resources []inline.Entry `mapstructure:"resources" yaml:"resources" validate:"dive"`
}

type SettingsConfig struct {
	LogLevel        log.Level  `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       log.Format `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	Concurrency     int        `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1,lte=64"`
	CheckMode       bool       `mapstructure:"check_mode" yaml:"check_mode"`
	ContinueOnError bool       `mapstructure:"continue_on_error" yaml:"continue_on_error"`
}

type ApplianceConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" validate:"oneof=rest memory"`
	// Snapshot seeds the memory driver, letting plans run offline.
	Snapshot    string `mapstructure:"snapshot" yaml:"snapshot"`
	rest.Config `mapstructure:",squash" yaml:",inline"`
}

type SourceConfig struct {
	Type string `mapstructure:"type" yaml:"type" validate:"oneof=config yaml hcl tfstate"`
	Path string `mapstructure:"path" yaml:"path" validate:"required_unless=Type config"`
	// VarFiles and Vars feed HCL variables.
	VarFiles []string       `mapstructure:"var_files" yaml:"var_files"`
	Vars     map[string]any `mapstructure:"vars" yaml:"vars"`
}

type ReporterConfig struct {
	Type string      `mapstructure:"type" yaml:"type" validate:"oneof=text json"`
	Text text.Config `mapstructure:"text" yaml:"text"`
	JSON json.Config `mapstructure:"json" yaml:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:    log.LevelInfo,
			LogFormat:   log.FormatText,
			Concurrency: 1,
		},
		Appliance: ApplianceConfig{
			Driver: DriverREST,
			Config: rest.Config{
				BasePath:          rest.DefaultBasePath,
				Timeout:           rest.DefaultTimeout,
				RequestsPerSecond: rest.DefaultRequestsPerSecond,
			},
		},
		Source: SourceConfig{
			Type: "config",
		},
		Reporter: ReporterConfig{
			Type: text.ReporterTypeText,
		},
	}
}

// Validate checks struct tags and reports every failure in one user-facing error.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}

	var details strings.Builder
	details.WriteString("Configuration validation failed:")
	for _, fe := range verrs {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, details.String(), "Please check your configuration file or flags.")
}
