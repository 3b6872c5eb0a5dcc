package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/wikiquiz/internal/config"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
)

// generateCmd is a one-shot debugging path: fetch, extract and generate a
// quiz for a single article, printing the payload to stdout without touching
// the database.
var generateCmd = &cobra.Command{
	Use:   "generate <article-url>",
	Short: "Generate a quiz for one article and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync()

		ctx := cmd.Context()
		url := args[0]

		fetcher := scrape.NewFetcher(cfg.RequestTimeout, scrape.NewMemoryCache(0), log)
		page, err := fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch article: %w", err)
		}

		article, err := scrape.Extract(page.HTML)
		if err != nil {
			return fmt.Errorf("extract article: %w", err)
		}
		if len(article.Body) < cfg.MinBodyChars {
			return fmt.Errorf("extracted body too short (%d chars)", len(article.Body))
		}

		input := quizgen.Input{
			Title:        article.Title,
			Sections:     article.Sections,
			Body:         article.Body,
			MinQuestions: cfg.DefaultMinQuestions,
			MaxQuestions: cfg.DefaultMaxQuestions,
		}

		useFallback, _ := cmd.Flags().GetBool("fallback")

		var payload *quizgen.QuizPayload
		if useFallback {
			payload = quizgen.NewFallbackGenerator(quizgen.DefaultFallbackSeed).Generate(input)
		} else {
			gate := semaphore.NewWeighted(cfg.LLMConcurrency)
			pipeline, err := quizgen.NewPipeline(ctx, cfg.LLM, gate, log)
			if err != nil {
				log.Warn("no model candidate available, using rule-based fallback", zap.Error(err))
				payload = quizgen.NewFallbackGenerator(quizgen.DefaultFallbackSeed).Generate(input)
			} else {
				payload, err = pipeline.Generate(ctx, input)
				if err != nil {
					return fmt.Errorf("generate quiz: %w", err)
				}
			}
		}

		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	generateCmd.Flags().Bool("fallback", false, "Use the rule-based generator instead of a model")
}
