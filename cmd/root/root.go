// Package root contains the root command for the application
package root

import (
	"fmt"

	"nossas-despesas/expense-import/internal/config"
	"nossas-despesas/expense-import/internal/container"
	"nossas-despesas/expense-import/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppConfig is the configuration loaded before any command runs
	AppConfig *config.Config

	// AppContainer holds the wired dependencies of the running command
	AppContainer *container.Container

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	// ConfigFile overrides the config search path
	ConfigFile string

	// LogLevel overrides log.level when set
	LogLevel string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "expense-import",
		Short: "Import bank statements as shared expense drafts.",
		Long: `expense-import reads Inter credit-card invoices (PDF), Flash benefit
statements and generic Inter CSV exports, turns every outflow into an expense
draft, suggests a category and saves the selected drafts to the expenses API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadEnv(Log)

			cfg, err := config.InitializeConfig(ConfigFile)
			if err != nil {
				return err
			}
			if LogLevel != "" {
				cfg.Log.Level = LogLevel
			}
			AppConfig = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)

			c, err := container.NewContainerWithLogger(cmd.Context(), cfg, Log)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			AppContainer = c
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close container")
			}
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file or directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file or directory")
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "Config file (default searches ./config.yaml, .expense-import/, $HOME/.expense-import/)")
	Cmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

// GetContainer returns the container built by PersistentPreRunE.
func GetContainer() *container.Container {
	return AppContainer
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return AppConfig
}

// GetLogger returns the command logger.
func GetLogger() logging.Logger {
	return Log
}

// RequireInput returns the --input flag or an error naming the command.
func RequireInput(cmd *cobra.Command) (string, error) {
	if SharedFlags.Input == "" {
		return "", fmt.Errorf("%s: --input is required", cmd.Name())
	}
	return SharedFlags.Input, nil
}
