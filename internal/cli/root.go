package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/cuecard/internal/config"
	apperrors "github.com/tessro/cuecard/internal/errors"
	"github.com/tessro/cuecard/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "cuecard",
	Short: "Host a music quiz from scanned Spotify cards",
	Long: `Cuecard turns scanned cards into Spotify playback for a music quiz.

Scan a card and its song plays on your chosen speaker with the title hidden.
Reveal it when the table has guessed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.cuecardrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfgPath = cfgFile
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfgPath = config.FindConfigFile()
		cfg, err = config.Load()
	}
	if errors.Is(err, apperrors.ErrConfigNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidConfig, err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newLogger builds the command logger. quiet silences stderr output for
// commands that own the terminal.
func newLogger(quiet bool) (*zap.SugaredLogger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level: level,
		File:  cfg.Log.File,
		Quiet: quiet,
	})
}
