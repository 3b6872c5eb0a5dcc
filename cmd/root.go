package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/wikiquiz/internal/config"
	"github.com/abhisek/wikiquiz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "wikiquiz",
	Short: "Wikipedia article quiz generator",
	Long:  "Wikiquiz — service that turns Wikipedia articles into validated multiple-choice quizzes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger from the configured environment.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore selects the persistence backend from config.
func openStore(cfg config.Config) (store.Store, error) {
	if cfg.DatabaseDriver == "memory" {
		return store.NewMemoryStore(0), nil
	}
	s, err := store.OpenGorm(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}
