// Package root contains the root command for the application
package root

import (
	"errors"
	"strings"

	"fjacquet/spend-intel/internal/common"
	"fjacquet/spend-intel/internal/config"
	"fjacquet/spend-intel/internal/container"
	"fjacquet/spend-intel/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags represents the flags shared by every command
type GlobalFlags struct {
	ConfigFile   string
	LogLevel     string
	LogFormat    string
	CSVDelimiter string
}

var (
	// Log is the shared logger instance for commands
	Log = logging.GetLogger()

	// AppContainer is built in PersistentPreRunE and closed after the command
	AppContainer *container.Container

	// Flags holds the persistent flag values
	Flags = GlobalFlags{}

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "spend-intel",
		Short: "Train and query the transaction intelligence models.",
		Long: `spend-intel trains a note-based category classifier and per-user spending
baselines from historical transactions, and uses them to suggest categories
and flag anomalous expenses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if AppContainer == nil {
				return
			}
			if err := AppContainer.Close(); err != nil {
				Log.WithError(err).Warn("Failed to close resources")
			}
			AppContainer = nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&Flags.ConfigFile, "config", "c", "", "Config file (default: config.yaml in $HOME/.spend-intel, .spend-intel or .)")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&Flags.LogFormat, "log-format", "", "Log format (text, json)")
	Cmd.PersistentFlags().StringVar(&Flags.CSVDelimiter, "csv-delimiter", "", "Delimiter for CSV input and output")
}

// LoadConfig loads the configuration and applies the persistent flag overrides.
func LoadConfig() (*config.Config, error) {
	config.LoadEnv()

	cfg, err := config.InitializeConfigFromFile(Flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	if Flags.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(Flags.LogLevel)
	}
	if Flags.LogFormat != "" {
		cfg.Log.Format = strings.ToLower(Flags.LogFormat)
	}
	return cfg, nil
}

// GetContainer returns the container built for the running command.
func GetContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, errors.New("application container is not initialized")
	}
	return AppContainer, nil
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	if Flags.CSVDelimiter != "" {
		common.SetDelimiter([]rune(Flags.CSVDelimiter)[0])
	}

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	AppContainer = c
	Log = c.GetLogger()
	return nil
}
