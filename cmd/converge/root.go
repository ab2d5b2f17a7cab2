package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/appliance-converge/internal/app"
	apperrors "github.com/olusolaa/appliance-converge/internal/errors"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	checkMode bool
	vars      []string
)

var rootCmd = &cobra.Command{
	Use:   "converge",
	Short: "Idempotently converges load-balancer appliance configuration.",
	Long: `converge reads declared resources (pools, virtual servers, policies,
system settings) from a config file, YAML or HCL manifests, or Terraform
state, compares them with what the appliance reports, and issues only the
calls needed to reach the declared state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .converge.yaml in . or $HOME)")
	flags.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	flags.BoolVar(&checkMode, "check", false, "Report what would change without modifying the appliance")
	flags.String("source", "", "Desired state source type (config, yaml, hcl, tfstate)")
	flags.StringP("path", "f", "", "Manifest file, directory or state file for the source")
	flags.StringArrayVar(&vars, "var", nil, "Set an HCL variable (name=value); repeatable")
	flags.String("reporter", "", "Report format (text, json)")
	flags.Int("concurrency", 0, "Resources reconciled in parallel (1 keeps declaration order)")
	flags.Bool("continue-on-error", false, "Keep going after a resource fails")

	bindings := map[string]string{
		"settings.log_level":         "log-level",
		"settings.log_format":        "log-format",
		"settings.check_mode":        "check",
		"settings.concurrency":       "concurrency",
		"settings.continue_on_error": "continue-on-error",
		"source.type":                "source",
		"source.path":                "path",
		"reporter.type":              "reporter",
	}
	for key, flag := range bindings {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}

	viper.SetEnvPrefix("CONVERGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(applyCmd, planCmd, factsCmd, kindsCmd)
}

func initializeConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".converge")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return apperrors.Wrap(err, apperrors.CodeConfigReadError, "failed to read config file")
		}
	}
	return nil
}

func bootstrap(cmd *cobra.Command) (*app.Application, error) {
	return app.BuildApplicationFromViper(cmd.Context(), viper.GetViper(), app.Options{Vars: vars})
}

func printError(err error) {
	userMsg, suggestion, ok := apperrors.GetUserFacingMessage(err)
	if !ok {
		userMsg = err.Error()
	}
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
	if suggestion != "" && ok {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
	}
}
