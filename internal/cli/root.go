package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-arena/internal/config"
	"quiz-arena/internal/logger"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-arena",
		Short:        "Timed quiz sessions with scoring, an opponent and level progression",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides server.port)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewImportCmd(&configPath))
	cmd.AddCommand(NewPlayCmd(&configPath))
	return cmd
}

// loadConfig reads the config file and sets up logging. A missing file runs
// on defaults.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return cfg, err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return cfg, err
	}
	if missing {
		logger.Get().Warn("config file not found, using defaults", zap.String("path", path))
	}
	return cfg, nil
}
