package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/mindpal/backend/internal/config"
	"github.com/zhouzirui/mindpal/backend/internal/logging"
	"github.com/zhouzirui/mindpal/backend/internal/storage"
)

var (
	configPath string

	cfg    *config.Config
	logger zerolog.Logger

	rootCmd = &cobra.Command{
		Use:           "mindpal",
		Short:         "MindPal 心语 companion backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file
			envErr := godotenv.Load()

			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			logger = logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			if envErr != nil {
				logger.Debug().Err(envErr).Msg("no .env file loaded, using system environment only")
			}
			return nil
		},
		RunE: runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	rootCmd.AddCommand(serveCmd, resetCmd, exportCmd, importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore 按配置打开 badger 存储。
func openStore() (*storage.BadgerStore, error) {
	return storage.OpenBadger(storage.BadgerConfig{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	}, logging.Component(logger, "storage"))
}
