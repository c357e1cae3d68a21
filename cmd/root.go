// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/terminwatch/internal/config"
	"github.com/xkilldash9x/terminwatch/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Every call returns independent
// flag state, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "terminwatch",
		Short: "terminwatch checks a booking portal once for a free appointment.",
		Long: `terminwatch drives a headless browser through the appointment form of a
booking portal and reports the result through its exit status:

  1  an appointment may be available
  0  no appointment, or the check could not complete

Run it from a scheduler and alert on a non-zero exit.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("failed to initialize configuration: %w", err)}
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return &ExitCodeError{Code: ExitUsage, Err: fmt.Errorf("failed to load or validate config: %w", err)}
			}

			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting terminwatch", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "terminwatch version %s\n" .Version}}`)

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newSignaturesCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCommand()
	return exitCode(rootCmd, rootCmd.ExecuteContext(ctx))
}

// exitCode maps the error returned by a command to an exit status and
// reports it.
func exitCode(rootCmd *cobra.Command, err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			observability.GetLogger().Error("Command failed", zap.Error(exitErr.Err))
			rootCmd.PrintErrln("Error:", exitErr.Err)
		}
		return exitErr.Code
	}

	// Flag and argument errors from cobra itself.
	rootCmd.PrintErrln("Error:", err)
	rootCmd.PrintErrln(rootCmd.UsageString())
	return ExitUsage
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	config.BindEnvironment(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}
	return nil
}

// configFromContext returns the configuration loaded by the root command.
func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, &ExitCodeError{Code: ExitUsage, Err: errors.New("configuration not loaded")}
	}
	return cfg, nil
}
