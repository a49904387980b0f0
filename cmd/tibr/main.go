// ABOUTME: Main entry point for the TIBR tray player
// ABOUTME: Loads config, builds the logger, runs the manager and tray UI
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/andypiper/theindiebeat-simple-player/internal/application/config"
	"github.com/andypiper/theindiebeat-simple-player/internal/application/manager"
	"github.com/andypiper/theindiebeat-simple-player/internal/application/tray"
)

var rootCmd = &cobra.Command{
	Use:          "tibr",
	Short:        "Stream The Indie Beat Radio from a terminal tray menu",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().String("config", "", "Path to configuration file (YAML)")
	rootCmd.Flags().String("log-level", "", "Log level override (debug, info, warn, error)")

	if err := viper.BindPFlag("config", rootCmd.Flags().Lookup("config")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level")); err != nil {
		panic(err)
	}
}

func run(_ *cobra.Command, _ []string) error {
	cfg := config.Default()
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if lvl := viper.GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	mgr := manager.NewFromConfig(cfg, logger)
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("start manager: %w", err)
	}

	app := tray.New(mgr, logger)
	runErr := app.Run()

	mgr.Shutdown()

	if runErr != nil {
		return fmt.Errorf("run ui: %w", runErr)
	}
	return nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.JSON {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		lvl, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zcfg.Level = lvl
	}

	// The alt-screen UI owns the terminal; logs go to a file when set.
	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
