package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/wikiquiz/internal/config"
	"github.com/abhisek/wikiquiz/internal/quizgen"
	"github.com/abhisek/wikiquiz/internal/scrape"
	"github.com/abhisek/wikiquiz/internal/store"
)

// Generator produces a validated quiz payload from an extracted article.
// *quizgen.Pipeline satisfies it in production; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, input quizgen.Input) (*quizgen.QuizPayload, error)
	ModelID() string
}

// ArticleFetcher retrieves raw article markup. *scrape.Fetcher satisfies it
// in production.
type ArticleFetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.Page, error)
}

// Server wires the HTTP surface over fetch, extraction, generation, grading
// and persistence.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	store    store.Store
	fetcher  ArticleFetcher
	gen      Generator
	fallback *quizgen.FallbackGenerator

	// flights collapses concurrent generations of the same article revision
	// into a single model call.
	flights singleflight.Group
}

// New assembles a Server. gen may be nil when no model candidate was
// available at startup; every generation then uses the rule-based fallback.
func New(cfg config.Config, log *zap.Logger, st store.Store, fetcher ArticleFetcher, gen Generator) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		store:    st,
		fetcher:  fetcher,
		gen:      gen,
		fallback: quizgen.NewFallbackGenerator(quizgen.DefaultFallbackSeed),
	}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	if s.cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.handleHealth)
	r.POST("/generate_quiz", s.handleGenerateQuiz)
	r.GET("/quiz/:id", s.handleGetQuiz)
	r.GET("/history", s.handleHistory)
	r.POST("/grade", s.handleGrade)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
