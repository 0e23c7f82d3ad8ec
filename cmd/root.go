package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docmate/internal/config"
	"docmate/internal/metrics"
	"docmate/internal/models"
)

var (
	cfgFile   string
	verbose   bool
	forceLang string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docmate",
	Short: "Multilingual question answering over a single document",
	Long: `DocuMate ingests a document into a vector store and answers questions
about it in the user's own language, using only the retrieved passages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// config init writes the file it would otherwise read
		if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		setLogLevel(cfg.Log.Level)
		metrics.Register()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and extra output")
	rootCmd.PersistentFlags().StringVar(&forceLang, "lang", "", "force the reply language (ISO 639-1 code)")
}

func setLogLevel(level string) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// redirectLogs sends log output to path so a full-screen UI stays clean.
func redirectLogs(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}).With().Caller().Logger()
	return func() { f.Close() }, nil
}

// fatalIfConfig turns configuration errors into a fatal log line.
func fatalIfConfig(err error) error {
	if errors.Is(err, models.ErrConfiguration) {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	return err
}
