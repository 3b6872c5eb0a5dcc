package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/wikiquiz/internal/config"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
	"github.com/abhisek/wikiquiz/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	var cache scrape.ValidatorCache
	if cfg.RedisAddr != "" {
		redisCache, err := scrape.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, using in-memory validator cache", zap.Error(err))
		} else {
			cache = redisCache
		}
	}
	if cache == nil {
		cache = scrape.NewMemoryCache(0)
	}

	fetcher := scrape.NewFetcher(cfg.RequestTimeout, cache, log)

	// The server starts even without a reachable model; generation then
	// falls back to the rule-based builder.
	var gen server.Generator
	gate := semaphore.NewWeighted(cfg.LLMConcurrency)
	pipeline, err := quizgen.NewPipeline(ctx, cfg.LLM, gate, log)
	if err != nil {
		log.Warn("no model candidate available, serving fallback quizzes", zap.Error(err))
	} else {
		gen = pipeline
		log.Info("model pipeline ready", zap.String("model", pipeline.ModelID()))
	}

	srv := server.New(cfg, log, st, fetcher, gen)
	return srv.Run(ctx)
}
