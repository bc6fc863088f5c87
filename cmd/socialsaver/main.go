package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"socialsaver/internal/config"
)

var configDir string

func main() {
	root := &cobra.Command{
		Use:           "socialsaver",
		Short:         "Save, classify and search links sent over WhatsApp and Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "./configs", "directory holding config.yaml")
	root.AddCommand(serveCommand(), extractCommand(), listCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the logger it describes.
func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
